// Command fesh compresses and decompresses ELF64 x86-64 binaries using the
// structural transform pipeline in package pipeline, and reports a
// compression comparison for a given input.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fesh-project/fesh/internal/hash"
	"github.com/fesh-project/fesh/pipeline"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "compare":
		err = runCompare(os.Args[2:])
	case "compress":
		err = runCompress(os.Args[2:])
	case "decompress":
		err = runDecompress(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "fesh:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fesh compare IN")
	fmt.Fprintln(os.Stderr, "       fesh compress IN OUT")
	fmt.Fprintln(os.Stderr, "       fesh decompress IN OUT")
}

func runCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ctx := context.Background()

	start := time.Now()
	compressed, err := pipeline.Compress(ctx, data)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}
	compTime := time.Since(start)

	start = time.Now()
	decompressed, err := pipeline.Decompress(ctx, compressed)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	decompTime := time.Since(start)

	origHash := hash.Sum64(data)
	gotHash := hash.Sum64(decompressed)

	ratio := float64(len(compressed)) / float64(len(data)) * 100.0

	fmt.Println("====== fesh compression report ======")
	fmt.Printf("Target File:  %s\n", path)
	fmt.Printf("Input:        %d bytes (xxhash %016x)\n", len(data), origHash)
	fmt.Printf("Compressed:   %d bytes (%.2f%%)\n", len(compressed), ratio)
	fmt.Printf("Comp Time:    %s\n", compTime)
	fmt.Printf("Decomp Time:  %s\n", decompTime)
	fmt.Printf("Round-trip:   %d bytes (xxhash %016x)\n", len(decompressed), gotHash)

	if !bytes.Equal(data, decompressed) {
		return fmt.Errorf("round-trip mismatch: input and decompressed output differ")
	}

	fmt.Println("Round-trip:   OK")

	return nil
}

func runCompress(args []string) error {
	fs := flag.NewFlagSet("compress", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read %s: %w", fs.Arg(0), err)
	}

	out, err := pipeline.Compress(context.Background(), data)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	if err := os.WriteFile(fs.Arg(1), out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fs.Arg(1), err)
	}

	return nil
}

func runDecompress(args []string) error {
	fs := flag.NewFlagSet("decompress", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read %s: %w", fs.Arg(0), err)
	}

	out, err := pipeline.Decompress(context.Background(), data)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}

	if err := os.WriteFile(fs.Arg(1), out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fs.Arg(1), err)
	}

	return nil
}
