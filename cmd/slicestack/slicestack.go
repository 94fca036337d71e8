package main

// slicestack loads a print directory, builds its layer scene headlessly,
// and reports what it found.

import(
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abworrall/slicestack/pkg/config"
	"github.com/abworrall/slicestack/pkg/palette"
	"github.com/abworrall/slicestack/pkg/scene"
	"github.com/abworrall/slicestack/pkg/stack"
	"github.com/abworrall/slicestack/pkg/viewer"
)

var(
	fVerbosity  int
	fConfigFile string
	fLegendFile string
	fOpacity    float64
	fHighQual   bool
	fNegative   bool
	fVoid       string
	fTop        int
	fBottom     int
	fDumpConfig bool
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.StringVar(&fConfigFile, "config", "", "yaml config file")
	flag.StringVar(&fLegendFile, "legend", "", "write the exposure color legend to this PNG")
	flag.Float64Var(&fOpacity, "opacity", -1, "layer opacity (0.0->1.0), overrides config")
	flag.BoolVar(&fHighQual, "hq", false, "render textures at full resolution")
	flag.BoolVar(&fNegative, "negative", false, "show the void pixels instead of the exposed ones")
	flag.StringVar(&fVoid, "void", "", "void mode: only, highlight")
	flag.IntVar(&fTop, "top", 0, "highest layer to show (0 for no limit)")
	flag.IntVar(&fBottom, "bottom", 0, "lowest layer to show (0 for no limit)")
	flag.BoolVar(&fDumpConfig, "dumpconfig", false, "print the final config as yaml, and exit")
	flag.Parse()

	log.Printf("slicestack starting\n")
}

func loadConfig() config.Config {
	cfg := config.NewConfig()
	if fConfigFile != "" {
		c, err := config.LoadConfig(fConfigFile)
		if err != nil {
			log.Fatal(err)
		}
		cfg = c
	}

	if fVerbosity > 0 { cfg.Verbosity = fVerbosity }
	if fOpacity >= 0  { cfg.Opacity = fOpacity }
	if fHighQual      { cfg.HighQuality = true }
	if fNegative      { cfg.ShowPositive = false }

	if err := cfg.Finalize(); err != nil {
		log.Fatal(err)
	}
	return cfg
}

func optInt(i int) *int {
	if i <= 0 {
		return nil
	}
	return &i
}

func main() {
	cfg := loadConfig()
	if fDumpConfig {
		fmt.Print(cfg.AsYaml())
		return
	}
	if flag.NArg() != 1 {
		log.Fatalf("usage: slicestack [flags] <print directory>")
	}

	graph := scene.NewMemGraph()
	v, err := viewer.New(cfg, graph, stack.LogReporter{Verbosity: cfg.Verbosity})
	if err != nil {
		log.Fatal(err)
	}
	defer v.Close()

	switch fVoid {
	case "only":      v.SetVoidOnly(true)
	case "highlight": v.SetVoidHighlight(true)
	case "":
	default:
		log.Fatalf("no void mode named '%s'", fVoid)
	}

	if !v.LoadPrintDirectory(flag.Arg(0)) {
		log.Fatalf("could not load '%s': %v", flag.Arg(0), v.LastError())
	}
	tStart := time.Now()
	for v.Tick() {
		time.Sleep(10 * time.Millisecond)
	}
	if err := v.LastError(); err != nil {
		log.Fatal(err)
	}

	v.SetLayerRange(optInt(fTop), optInt(fBottom))
	for v.Tick() {
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Printf("%s", v.Summary())
	fmt.Printf("scene: %d layers, built in %s, %d textures uploaded, bounds %s\n",
		v.Builder.NumLayers(), time.Since(tStart).Round(time.Millisecond), graph.Uploads, graph.Bounds(graph.Root()))
	fmt.Printf("image types: %v, exposures: %v\n", v.ImageTypes(), v.Exposures())

	if fVerbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
		log.Printf("%s\n", v)
	}

	if fLegendFile != "" {
		if err := palette.WriteLegend(fLegendFile, v.Builder.Table()); err != nil {
			log.Fatal(err)
		}
		log.Printf("legend written to %s\n", fLegendFile)
	}
}
