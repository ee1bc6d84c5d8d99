package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/freekieb7/nanojson/json"
	"github.com/freekieb7/nanojson/yamlnode"
)

// convertCommand writes every document of the input files as one line of JSON.
type convertCommand struct {
	flags *globalFlags
	files *[]string

	stdin  io.Reader
	stdout io.Writer
}

func addConvertCommand(ctx context.Context, app *kingpin.Application, flags *globalFlags) {
	cmd := &convertCommand{flags: flags, stdin: os.Stdin, stdout: os.Stdout}
	convert := app.Command("convert", "Convert files, or stdin when none are given, to compact JSON.").Default()
	cmd.files = convert.Arg("file", "YAML or JSON file to convert.").ExistingFiles()
	convert.Action(func(_ *kingpin.ParseContext) error {
		return withTelemetry(ctx, flags, func(logger *slog.Logger) error {
			return cmd.run(ctx, logger)
		})
	})
}

func (cmd *convertCommand) run(ctx context.Context, logger *slog.Logger) error {
	opts, err := cmd.flags.options()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(opts)

	out := bufio.NewWriter(cmd.stdout)

	if len(*cmd.files) == 0 {
		if err := cmd.convert(ctx, enc, "-", cmd.stdin, out); err != nil {
			return err
		}
		return out.Flush()
	}

	for _, name := range *cmd.files {
		if err := cmd.convertFile(ctx, enc, name, out); err != nil {
			_ = out.Flush()
			return err
		}
		logger.DebugContext(ctx, "converted file", "file", name)
	}
	return out.Flush()
}

func (cmd *convertCommand) convertFile(ctx context.Context, enc *json.Encoder, name string, out io.Writer) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return cmd.convert(ctx, enc, name, f, out)
}

func (cmd *convertCommand) convert(ctx context.Context, enc *json.Encoder, name string, in io.Reader, out io.Writer) error {
	docs, err := yamlnode.Decode(in)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	for i, doc := range docs {
		b, err := enc.Encode(ctx, doc)
		if err != nil {
			return fmt.Errorf("%s: document %d: %w", name, i+1, err)
		}
		b = append(b, '\n')
		if _, err := out.Write(b); err != nil {
			return err
		}
	}
	return nil
}
