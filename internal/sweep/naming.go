package sweep

import (
	"cmp"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/anetsop/rosterlab/internal/family"
	"github.com/anetsop/rosterlab/pkg/models"
)

const (
	artifactPrefix = "Output_seed_"
	artifactExt    = ".xlsx"
)

// ArtifactName is the one place result file names are built, e.g.
// Output_seed_123_C1_1_C2_2_C3_1_C4_0.5.xlsx
func ArtifactName(seed models.Seed, cfg models.Configuration) string {
	return artifactPrefix + string(seed) + "_" + cfg.Key() + artifactExt
}

// ParseArtifactName inverts ArtifactName for the given family
func ParseArtifactName(f *family.Family, name string) (models.Seed, models.Configuration, error) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, artifactPrefix) || !strings.HasSuffix(base, artifactExt) {
		return "", models.Configuration{}, fmt.Errorf("%q is not an artifact name", base)
	}
	fields := strings.Split(strings.TrimSuffix(strings.TrimPrefix(base, artifactPrefix), artifactExt), "_")
	if len(fields) != 1+2*len(f.Params) {
		return "", models.Configuration{}, fmt.Errorf("%q does not carry the %s parameters", base, f.Name)
	}

	seed := models.Seed(fields[0])
	params := make([]models.Param, len(f.Params))
	for i, p := range f.Params {
		name, text := fields[1+2*i], fields[2+2*i]
		if name != p {
			return "", models.Configuration{}, fmt.Errorf("%q: expected parameter %s, got %s", base, p, name)
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return "", models.Configuration{}, fmt.Errorf("%q: parameter %s: %w", base, p, err)
		}
		params[i] = models.Param{Name: p, Value: v, Text: text}
	}
	return seed, models.Configuration{Family: f.Name, Params: params}, nil
}

// CompareConfigurations orders configurations the way a default sweep
// enumerates them: by the family's nesting order, outer parameter first.
func CompareConfigurations(f *family.Family, a, b models.Configuration) int {
	for _, name := range f.Nesting {
		pa, _ := a.Get(name)
		pb, _ := b.Get(name)
		if c := cmp.Compare(pa.Value, pb.Value); c != 0 {
			return c
		}
	}
	return 0
}
