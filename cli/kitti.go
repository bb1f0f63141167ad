package cli

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/odombridge/output"
	"go.viam.com/odombridge/spatialmath"
)

// ReadKITTIPoses reads camera poses in the KITTI odometry format: each non-empty line holds the 12
// row-major entries of a 3x4 camera to world matrix. Frames are stamped from times when it is not
// nil, otherwise at rate frames per second starting at zero.
func ReadKITTIPoses(poses io.Reader, times []float64, rate float64) ([]*output.FrameShell, error) {
	if times == nil && rate <= 0 {
		return nil, errors.Errorf("rate must be positive, got %v", rate)
	}
	var frames []*output.FrameShell
	scanner := bufio.NewScanner(poses)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields, err := spatialmath.ParseFloatFields(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNum)
		}
		if len(fields) != 12 {
			return nil, errors.Errorf("line %d: expected 12 values, got %d", lineNum, len(fields))
		}

		id := len(frames)
		var stamp float64
		if times != nil {
			if id >= len(times) {
				return nil, errors.Errorf("no timestamp for pose %d, times file has %d entries", id, len(times))
			}
			stamp = times[id]
		} else {
			stamp = float64(id) / rate
		}
		shell, err := output.NewFrameShell(id, id, stamp, mat.NewDense(3, 4, fields))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNum)
		}
		frames = append(frames, shell)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

// ReadKITTITimes reads a KITTI times file with one timestamp in seconds per line.
func ReadKITTITimes(r io.Reader) ([]float64, error) {
	times := []float64{}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		stamp, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNum)
		}
		times = append(times, stamp)
	}
	return times, scanner.Err()
}

func readKITTIFiles(posesPath, timesPath string, rate float64) ([]*output.FrameShell, error) {
	var times []float64
	if timesPath != "" {
		//nolint:gosec
		f, err := os.Open(timesPath)
		if err != nil {
			return nil, err
		}
		times, err = ReadKITTITimes(f)
		utils.UncheckedError(f.Close())
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", timesPath)
		}
	}
	//nolint:gosec
	f, err := os.Open(posesPath)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	frames, err := ReadKITTIPoses(f, times, rate)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", posesPath)
	}
	return frames, nil
}
