// SPDX-License-Identifier: Apache-2.0

package profiling

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

const (
	DefaultCPUProfile    = "cpu.prof"
	DefaultMemoryProfile = "mem.prof"
)

// Start begins CPU profiling into cpuFile. The returned stop function ends
// it and writes the allocations profile to memFile.
func Start(cpuFile, memFile string) (stop func() error, err error) {
	stopCPUProfile, err := StartCPUProfile(cpuFile)
	if err != nil {
		return nil, err
	}

	return func() error {
		cpuErr := stopCPUProfile()
		return errors.Join(cpuErr, CreateMemoryProfile(memFile))
	}, nil
}

func StartCPUProfile(fileName string) (func() error, error) {
	if fileName == "" {
		fileName = DefaultCPUProfile
	}
	cpuFile, err := os.Create(fileName)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile file: %w", err)
	}

	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		cpuFile.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}

	return func() error {
		pprof.StopCPUProfile()
		return cpuFile.Close()
	}, nil
}

func CreateMemoryProfile(fileName string) error {
	if fileName == "" {
		fileName = DefaultMemoryProfile
	}
	memFile, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("could not create memory profile file: %w", err)
	}
	defer memFile.Close()

	runtime.GC()
	if err := pprof.Lookup("allocs").WriteTo(memFile, 0); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	return nil
}
