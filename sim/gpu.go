package sim

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
)

type GPU struct {
	Index int
	Load  float64
}

// ProbeGPUs queries nvidia-smi for the utilization of every GPU. A
// missing tool or an unparseable answer means no GPUs are available,
// which sends the launch down the windowed single-GPU path.
func ProbeGPUs(ctx context.Context) []GPU {
	out, err := exec.CommandContext(ctx,
		"nvidia-smi",
		"--query-gpu=index,utilization.gpu",
		"--format=csv,noheader,nounits",
	).Output()
	if err != nil {
		return nil
	}

	gpus := make([]GPU, 0)
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		load, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		gpus = append(gpus, GPU{Index: index, Load: load / 100})
	}
	return gpus
}

// LeastLoadedGPU returns the index of the GPU with the lowest load.
func LeastLoadedGPU(gpus []GPU) int {
	min := 0
	for i, gpu := range gpus {
		if gpu.Load < gpus[min].Load {
			min = i
		}
	}
	return gpus[min].Index
}
