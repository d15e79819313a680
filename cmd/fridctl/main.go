// Package main is fridctl's cobra CLI: dump/load FRID text between
// encodings, and a kvs subcommand group driving any of the four store
// backends against a store named in a fridctl.toml config file. Grounded
// on cmd/smf/main.go's function-per-subcommand, flags-struct, RunE shape.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"frid"
	"frid/config"
	"frid/dumper"
	"frid/kvs"
	"frid/loader"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fridctl",
		Short: "Inspect and edit FRID text and frid kvs stores",
	}

	rootCmd.AddCommand(dumpCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(kvsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type dumpFlags struct {
	mode         string
	escapePrefix string
	indent       string
	asciiOnly    bool
}

func dumpCmd() *cobra.Command {
	flags := &dumpFlags{}
	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Re-render FRID text read from a file (or stdin) in the requested mode",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runDump(args, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "frid", "Output mode: frid, json, json5, or escaped-json")
	cmd.Flags().StringVar(&flags.escapePrefix, "escape-prefix", "~", "Escape prefix, required for escaped-json mode")
	cmd.Flags().StringVar(&flags.indent, "indent", "", "Per-level indentation string; empty means compact output")
	cmd.Flags().BoolVar(&flags.asciiOnly, "ascii-only", false, "Escape all non-ASCII codepoints")
	return cmd
}

func runDump(args []string, flags *dumpFlags) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}
	val, err := loader.Load(text, false)
	if err != nil {
		return err
	}
	mode, err := parseMode(flags.mode)
	if err != nil {
		return err
	}
	out, err := dumper.Dump(val, dumper.Options{
		Mode:         mode,
		EscapePrefix: flags.escapePrefix,
		Indent:       flags.indent,
		AsciiOnly:    flags.asciiOnly,
	})
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func parseMode(s string) (dumper.Mode, error) {
	switch strings.ToLower(s) {
	case "", "frid":
		return dumper.ModeFrid, nil
	case "json":
		return dumper.ModeJSON, nil
	case "json5":
		return dumper.ModeJSON5, nil
	case "escaped-json", "escapedjson":
		return dumper.ModeEscapedJSON, nil
	default:
		return 0, fmt.Errorf("fridctl: unknown mode %q", s)
	}
}

func loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [file]",
		Short: "Parse FRID text and print its value kind",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			text, err := readInput(args)
			if err != nil {
				return err
			}
			val, err := loader.Load(text, false)
			if err != nil {
				return err
			}
			fmt.Println(val.Kind())
			return nil
		},
	}
	return cmd
}

func readInput(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("fridctl: read %q: %w", args[0], err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("fridctl: read stdin: %w", err)
	}
	return string(data), nil
}

type kvsFlags struct {
	configPath string
	store      string
}

func kvsCmd() *cobra.Command {
	flags := &kvsFlags{}
	cmd := &cobra.Command{
		Use:   "kvs",
		Short: "Operate on a configured kvs store",
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "fridctl.toml", "Path to the store configuration file")
	cmd.PersistentFlags().StringVarP(&flags.store, "store", "s", "", "Store name, as named in the config file's [stores.<name>] table")

	cmd.AddCommand(kvsGetCmd(flags))
	cmd.AddCommand(kvsPutCmd(flags))
	cmd.AddCommand(kvsDelCmd(flags))
	cmd.AddCommand(kvsGetMetaCmd(flags))
	return cmd
}

func openConfiguredStore(flags *kvsFlags, logger logrus.FieldLogger) (kvs.Store, error) {
	file, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	st, ok := file.Stores[flags.store]
	if !ok {
		return nil, frid.NewConfigError("store", flags.store, "", "not present in "+flags.configPath)
	}
	return st.Open(logger)
}

func kvsGetCmd(flags *kvsFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key...>",
		Short: "Print the FRID value at key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := logrus.New()
			store, err := openConfiguredStore(flags, logger)
			if err != nil {
				return err
			}
			v, err := store.GetFrid(context.Background(), kvs.NewKey(args...), kvs.Sel{})
			if err != nil {
				return err
			}
			if v.IsMissing() {
				return frid.NewNotFoundError("fridctl: key not found", nil)
			}
			text, err := dumper.Dump(v.Value(), dumper.Options{Mode: dumper.ModeFrid})
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}

func kvsPutCmd(flags *kvsFlags) *cobra.Command {
	var noCreate, noChange, keepBoth bool
	cmd := &cobra.Command{
		Use:   "put <key> <frid-value>",
		Short: "Store a FRID value at key",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := logrus.New()
			store, err := openConfiguredStore(flags, logger)
			if err != nil {
				return err
			}
			key := kvs.NewKey(args[:len(args)-1]...)
			val, err := loader.Load(args[len(args)-1], false)
			if err != nil {
				return err
			}
			flag := kvs.Unchecked
			if noCreate {
				flag |= kvs.NoCreate
			}
			if noChange {
				flag |= kvs.NoChange
			}
			if keepBoth {
				flag |= kvs.KeepBoth
			}
			changed, err := store.PutFrid(context.Background(), key, val, flag)
			if err != nil {
				return err
			}
			fmt.Println(changed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noCreate, "no-create", false, "Fail if key has no existing value")
	cmd.Flags().BoolVar(&noChange, "no-change", false, "Fail if key already has a value")
	cmd.Flags().BoolVar(&keepBoth, "keep-both", false, "Merge with the existing value instead of replacing it")
	return cmd
}

func kvsDelCmd(flags *kvsFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "del <key...>",
		Short: "Remove the value at key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := logrus.New()
			store, err := openConfiguredStore(flags, logger)
			if err != nil {
				return err
			}
			changed, err := store.DelFrid(context.Background(), kvs.NewKey(args...), kvs.Sel{})
			if err != nil {
				return err
			}
			fmt.Println(changed)
			return nil
		},
	}
}

func kvsGetMetaCmd(flags *kvsFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get-meta <key...>",
		Short: "Print the size/kind metadata of one key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logger := logrus.New()
			store, err := openConfiguredStore(flags, logger)
			if err != nil {
				return err
			}
			key := kvs.NewKey(args...)
			meta, err := store.GetMeta(context.Background(), []kvs.Key{key})
			if err != nil {
				return err
			}
			size, ok := meta[key.String()]
			if !ok {
				return frid.NewNotFoundError("fridctl: key not found", nil)
			}
			fmt.Printf("kind=%s size=%s\n", size.Kind, strconv.Itoa(size.Size))
			return nil
		},
	}
}
