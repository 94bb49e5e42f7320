package peaks

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/grailbio/chipseq/sample"
	"github.com/grailbio/chipseq/tool"
	"github.com/grailbio/chipseq/util"
)

// MACS2 returns a Caller wrapping the macs2 binary. The wrapper only shapes
// the command line and reports the narrowPeak output path; everything about
// the model belongs to macs2 itself.
func MACS2(r tool.Runner) Caller {
	return func(ctx context.Context, name, chipBAM, inputBAM, genomeBuild, outDir string, cfg sample.Config) (string, error) {
		outFile := filepath.Join(outDir, name+"_peaks.narrowPeak")
		if util.FileExists(outFile) {
			return outFile, nil
		}
		macs2 := cfg.Program("macs2")
		args := []string{
			macs2, "callpeak",
			"-t", chipBAM,
			"-n", name,
			"-g", macs2GenomeSize(genomeBuild),
			"--outdir", outDir,
		}
		if inputBAM != "" {
			args = append(args, "-c", inputBAM)
		}
		if cfg.ChipMethod == "atac" {
			args = append(args, "--nomodel", "--shift", "-100", "--extsize", "200")
		}
		message := fmt.Sprintf("Calling peaks on %s with macs2.", name)
		if err := r.Run(ctx, strings.Join(args, " "), message); err != nil {
			return "", err
		}
		return outFile, nil
	}
}

// DefaultCallers is the registry used by production pipelines.
func DefaultCallers(r tool.Runner) map[string]Caller {
	return map[string]Caller{"macs2": MACS2(r)}
}

// macs2GenomeSize maps a genome build to the macs2 effective-genome-size
// shorthand, defaulting to the numeric human size only for human builds and
// otherwise passing the build through for macs2 to reject loudly.
func macs2GenomeSize(genomeBuild string) string {
	b := strings.ToLower(genomeBuild)
	switch {
	case strings.HasPrefix(b, "hg") || strings.HasPrefix(b, "grch"):
		return "hs"
	case strings.HasPrefix(b, "mm") || strings.HasPrefix(b, "grcm"):
		return "mm"
	case strings.HasPrefix(b, "ce"):
		return "ce"
	case strings.HasPrefix(b, "dm") || strings.HasPrefix(b, "bdgp"):
		return "dm"
	}
	return genomeBuild
}
