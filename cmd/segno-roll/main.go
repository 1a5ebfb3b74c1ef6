package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/segnolabs/segno"
	"github.com/segnolabs/segno/internal/roll"
)

func main() {
	var (
		notePath   = flag.String("file", "", "path to a notation file")
		noteInline = flag.String("n", "", "inline notation string")
		outPath    = flag.String("o", "roll.png", "output PNG path")
		pxPerSec   = flag.Float64("px-per-second", 0, "horizontal scale (0 = default)")
	)
	flag.Parse()

	text, err := resolveInput(*notePath, *noteInline)
	if err != nil {
		log.Fatal(err)
	}

	sched := segno.CompileSchedule(text)
	if sched.Empty() {
		log.Fatal("nothing to draw: the input produced no playable groups")
	}

	opts := roll.DefaultOptions()
	if *pxPerSec > 0 {
		opts.PxPerSecond = *pxPerSec
	}
	dc := roll.Render(sched, opts)
	if err := dc.SavePNG(*outPath); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%d bars, %.1fs)\n", *outPath, sched.BarCount, sched.TotalMs/1000)
}

func resolveInput(path string, inline string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("pass notation with -file or -n")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
