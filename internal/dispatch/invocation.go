// Package dispatch runs the external optimizer once per (family,
// configuration, seed) and reports a typed outcome for every invocation.
package dispatch

import (
	"path/filepath"
	"strconv"

	"github.com/anetsop/rosterlab/internal/family"
	"github.com/anetsop/rosterlab/internal/sweep"
	"github.com/anetsop/rosterlab/pkg/models"
)

// Settings are the invocation fields shared by every run of a batch
type Settings struct {
	Dataset     string
	StartDate   string
	EndDate     string
	Generations int
	// ArtifactDir is where the optimizer writes --results files
	ArtifactDir string
}

// Invocation is one fully described optimizer run. It is built once and
// never mutated.
type Invocation struct {
	Family      *family.Family
	Config      models.Configuration
	Seed        models.Seed
	Population  int
	Dataset     string
	StartDate   string
	EndDate     string
	Generations int
	// OutputName is passed to --results
	OutputName string
	// ArtifactPath is where the result file is expected after a clean exit
	ArtifactPath string
}

// NewInvocation builds the invocation for one configuration and seed
func NewInvocation(f *family.Family, cfg models.Configuration, seed models.Seed, population int, s Settings) Invocation {
	name := sweep.ArtifactName(seed, cfg)
	return Invocation{
		Family:       f,
		Config:       cfg,
		Seed:         seed,
		Population:   population,
		Dataset:      s.Dataset,
		StartDate:    s.StartDate,
		EndDate:      s.EndDate,
		Generations:  s.Generations,
		OutputName:   name,
		ArtifactPath: filepath.Join(s.ArtifactDir, name),
	}
}

// BuildArgs returns the optimizer arguments that follow the command:
//
//	<selector> -f <dataset> --startDate <d> --endDate <d> --seed <seed>
//	--<P> <v>... --generations <n> -p <pop> --results <name>
func BuildArgs(inv Invocation) []string {
	args := []string{
		inv.Family.Name,
		"-f", inv.Dataset,
		"--startDate", inv.StartDate,
		"--endDate", inv.EndDate,
		"--seed", string(inv.Seed),
	}
	for _, p := range inv.Config.Params {
		args = append(args, "--"+p.Name, p.Text)
	}
	return append(args,
		"--generations", strconv.Itoa(inv.Generations),
		"-p", strconv.Itoa(inv.Population),
		"--results", inv.OutputName,
	)
}
