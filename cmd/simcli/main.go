package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"crowd-sim/internal/domain"
	"crowd-sim/internal/simulation"
)

// simcli corre una simulación completa sin servidor ni base de datos:
// lee encuesta y segmentos desde archivos JSON y escribe el resultado a stdout.
func main() {
	var (
		surveyPath   = flag.String("survey", "", "archivo JSON con la encuesta")
		segmentsPath = flag.String("segments", "", "archivo JSON con los segmentos")
		sourcesPath  = flag.String("sources", "", "archivo JSON con fuentes de datos (opcional)")
		sampleSize   = flag.Int("n", 100, "cantidad de respondentes a simular")
		seed         = flag.Uint64("seed", 1, "semilla del generador")
		workers      = flag.Int("workers", 8, "workers de generación de respuestas")
		outPath      = flag.String("out", "", "archivo de salida (default stdout)")
		verbose      = flag.Bool("v", false, "logging detallado")
	)
	flag.Parse()

	if *surveyPath == "" || *segmentsPath == "" {
		fmt.Fprintln(os.Stderr, "uso: simcli -survey survey.json -segments segments.json [-sources sources.json] [-n 100] [-seed 1]")
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	var survey domain.Survey
	if err := readJSON(*surveyPath, &survey); err != nil {
		fatalf("leyendo encuesta: %v", err)
	}
	var segments []domain.Segment
	if err := readJSON(*segmentsPath, &segments); err != nil {
		fatalf("leyendo segmentos: %v", err)
	}
	var sources []domain.DataSource
	if *sourcesPath != "" {
		if err := readJSON(*sourcesPath, &sources); err != nil {
			fatalf("leyendo fuentes: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	simulator := simulation.NewSimulator(logger, *workers)
	result, err := simulator.Run(ctx, simulation.RunParams{
		Survey:      survey,
		Segments:    segments,
		DataSources: sources,
		SampleSize:  *sampleSize,
		Seed:        *seed,
	})
	if err != nil {
		fatalf("corriendo simulación: %v", err)
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fatalf("creando salida: %v", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fatalf("escribiendo resultado: %v", err)
	}
}

func readJSON(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
