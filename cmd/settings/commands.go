// Copyright 2020 YourBase Inc.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/yourbase/settings/configstore"
	"github.com/yourbase/settings/retry"
	"gopkg.in/yaml.v3"
)

// valueTypes lists the accepted --type values.
var valueTypes = []string{"string", "bool", "int", "uint", "float32", "float64", "time", "password"}

// globalFlags holds the flags shared by every subcommand.
type globalFlags struct {
	base    string
	subDir  string
	file    string
	lockDir string
}

func (g *globalFlags) open(ctx context.Context) *configstore.Store {
	return configstore.New(ctx, g.base, g.file, &configstore.Options{
		SubDirectory: g.subDir,
		LockDir:      g.lockDir,
	})
}

func newRootCmd() *cobra.Command {
	g := new(globalFlags)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write INI settings files",
		Long: `Read and write values in an INI settings file.

The file is BASE/SUBDIR/FILE. Values are typed the same way a program using
the file would read them, so "set --type bool" stores 1 or 0 and
"set --type password" stores the hex form.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&g.base, "base", ".", "base `dir`ectory")
	flags.StringVar(&g.subDir, "subdir", configstore.DefaultSubDirectory, "subdirectory of the base directory holding the file")
	flags.StringVar(&g.file, "file", "settings.ini", "settings file `name`")
	flags.StringVar(&g.lockDir, "lock-dir", "", "directory holding lock files (default $"+configstore.LockDirEnv+" or the temp directory)")

	cmd.AddCommand(
		newGetCmd(g),
		newSetCmd(g),
		newDeleteCmd(g),
		newDumpCmd(g),
		newLockCmd(g),
		newPathCmd(g),
	)
	return cmd
}

func newGetCmd(g *globalFlags) *cobra.Command {
	var typ, def string
	cmd := &cobra.Command{
		Use:   "get [options] SECTION KEY",
		Short: "Print a value",
		Long: `Print the value stored under SECTION and KEY.

If the key is missing, the default is stored and printed.

Examples:
  settings get window width --type int --default 800
  settings get account token --type password`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := g.open(ctx)
			defer s.Close()
			v, err := readValue(ctx, s, typ, args[0], args[1], def)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "string", "value type: "+strings.Join(valueTypes, ", "))
	cmd.Flags().StringVar(&def, "default", "", "value to store and print if the key is missing")
	return cmd
}

func newSetCmd(g *globalFlags) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "set [options] SECTION KEY VALUE",
		Short: "Store a value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := g.open(ctx)
			defer s.Close()
			return writeValue(ctx, s, typ, args[0], args[1], args[2])
		},
	}
	cmd.Flags().StringVar(&typ, "type", "string", "value type: "+strings.Join(valueTypes, ", "))
	return cmd
}

func newDeleteCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete SECTION KEY",
		Short: "Remove a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := g.open(ctx)
			defer s.Close()
			if !s.DeleteKey(ctx, args[0], args[1]) {
				return fmt.Errorf("delete %s.%s: failed", args[0], args[1])
			}
			return nil
		},
	}
}

func newDumpCmd(g *globalFlags) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every value",
		Long: `Print every section and key in the settings file.

Values are printed as stored. With --yaml, the output is a map of section
names to maps of keys to values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := g.open(ctx)
			defer s.Close()
			if asYAML {
				return dumpYAML(ctx, cmd.OutOrStdout(), s)
			}
			return dumpINI(ctx, cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print as YAML")
	return cmd
}

func newLockCmd(g *globalFlags) *cobra.Command {
	var hold, wait time.Duration
	cmd := &cobra.Command{
		Use:   "lock [--hold DURATION] [--wait DURATION]",
		Short: "Take the settings file's lock",
		Long: `Take the settings file's lock, hold it for the given duration, then
release it. Fails if another process holds the lock, unless --wait is given,
in which case it keeps trying for up to that long.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := g.open(ctx)
			defer s.Close()
			if wait <= 0 {
				return s.WithLock(ctx, func() error {
					return holdLock(ctx, cmd.OutOrStdout(), s, hold)
				})
			}
			waitCtx, cancel := context.WithTimeout(ctx, wait)
			err := s.WaitLock(waitCtx, &retry.Exponential{
				Initial: 10 * time.Millisecond,
				Max:     500 * time.Millisecond,
			})
			cancel()
			if err != nil {
				return err
			}
			defer s.ReleaseLock(ctx)
			return holdLock(ctx, cmd.OutOrStdout(), s, hold)
		},
	}
	cmd.Flags().DurationVar(&hold, "hold", 0, "how long to hold the lock")
	cmd.Flags().DurationVar(&wait, "wait", 0, "how long to keep trying if the lock is busy")
	return cmd
}

func holdLock(ctx context.Context, w io.Writer, s *configstore.Store, d time.Duration) error {
	fmt.Fprintln(w, "locked", s.Path())
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newPathCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file's path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := g.open(cmd.Context())
			defer s.Close()
			fmt.Fprintln(cmd.OutOrStdout(), s.Path())
			return nil
		},
	}
}

// readValue reads a value of the named type and formats it for printing.
// def is parsed as the type; an empty def means the type's zero value.
func readValue(ctx context.Context, s *configstore.Store, typ, section, key, def string) (string, error) {
	switch typ {
	case "string":
		return s.ReadString(ctx, section, key, def), nil
	case "password":
		return s.ReadPassword(ctx, section, key, def), nil
	case "bool":
		d, err := parseOrZero(def, strconv.ParseBool)
		if err != nil {
			return "", fmt.Errorf("--default: %w", err)
		}
		return strconv.FormatBool(s.ReadBool(ctx, section, key, d)), nil
	case "int":
		d, err := parseOrZero(def, strconv.Atoi)
		if err != nil {
			return "", fmt.Errorf("--default: %w", err)
		}
		return strconv.Itoa(s.ReadInt(ctx, section, key, d)), nil
	case "uint":
		d, err := parseOrZero(def, parseUint)
		if err != nil {
			return "", fmt.Errorf("--default: %w", err)
		}
		return strconv.FormatUint(uint64(s.ReadUint(ctx, section, key, d)), 10), nil
	case "float32":
		d, err := parseOrZero(def, parseFloat32)
		if err != nil {
			return "", fmt.Errorf("--default: %w", err)
		}
		return strconv.FormatFloat(float64(s.ReadFloat32(ctx, section, key, d)), 'g', -1, 32), nil
	case "float64":
		d, err := parseOrZero(def, parseFloat64)
		if err != nil {
			return "", fmt.Errorf("--default: %w", err)
		}
		return strconv.FormatFloat(s.ReadFloat64(ctx, section, key, d), 'g', -1, 64), nil
	case "time":
		d, err := parseOrZero(def, parseTime)
		if err != nil {
			return "", fmt.Errorf("--default: %w", err)
		}
		return s.ReadTime(ctx, section, key, d).Format(configstore.TimeLayout), nil
	default:
		return "", unknownType(typ)
	}
}

// writeValue parses text as the named type and stores it.
func writeValue(ctx context.Context, s *configstore.Store, typ, section, key, text string) error {
	var ok bool
	switch typ {
	case "string":
		ok = s.WriteString(ctx, section, key, text)
	case "password":
		ok = s.WritePassword(ctx, section, key, text)
	case "bool":
		v, err := strconv.ParseBool(text)
		if err != nil {
			return err
		}
		ok = s.WriteBool(ctx, section, key, v)
	case "int":
		v, err := strconv.Atoi(text)
		if err != nil {
			return err
		}
		ok = s.WriteInt(ctx, section, key, v)
	case "uint":
		v, err := parseUint(text)
		if err != nil {
			return err
		}
		ok = s.WriteUint(ctx, section, key, v)
	case "float32":
		v, err := parseFloat32(text)
		if err != nil {
			return err
		}
		ok = s.WriteFloat32(ctx, section, key, v)
	case "float64":
		v, err := parseFloat64(text)
		if err != nil {
			return err
		}
		ok = s.WriteFloat64(ctx, section, key, v)
	case "time":
		v, err := parseTime(text)
		if err != nil {
			return err
		}
		ok = s.WriteTime(ctx, section, key, v)
	default:
		return unknownType(typ)
	}
	if !ok {
		return fmt.Errorf("set %s.%s: failed", section, key)
	}
	return nil
}

func unknownType(typ string) error {
	return fmt.Errorf("unknown type %q (want one of %s)", typ, strings.Join(valueTypes, ", "))
}

func parseOrZero[T any](s string, parse func(string) (T, error)) (T, error) {
	if s == "" {
		var zero T
		return zero, nil
	}
	return parse(s)
}

func parseUint(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, strconv.IntSize)
	return uint(n), err
}

func parseFloat32(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	return float32(f), err
}

func parseFloat64(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(configstore.TimeLayout, s, time.Local)
	if err != nil {
		return time.ParseInLocation(time.RFC3339, s, time.Local)
	}
	return t, nil
}

// A sectionDump is one section's keys in file order with their stored text.
type sectionDump struct {
	name   string
	keys   []string
	values map[string]string
}

func snapshot(ctx context.Context, s *configstore.Store) []sectionDump {
	var dump []sectionDump
	for _, name := range s.Sections(ctx) {
		sec := sectionDump{
			name:   name,
			keys:   s.Keys(ctx, name),
			values: make(map[string]string),
		}
		for _, key := range sec.keys {
			sec.values[key] = s.ReadString(ctx, name, key, "")
		}
		dump = append(dump, sec)
	}
	return dump
}

func dumpINI(ctx context.Context, w io.Writer, s *configstore.Store) error {
	for i, sec := range snapshot(ctx, s) {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if sec.name != "" {
			if _, err := fmt.Fprintf(w, "[%s]\n", sec.name); err != nil {
				return err
			}
		}
		for _, key := range sec.keys {
			if _, err := fmt.Fprintf(w, "%s=%s\n", key, sec.values[key]); err != nil {
				return err
			}
		}
	}
	return nil
}

func dumpYAML(ctx context.Context, w io.Writer, s *configstore.Store) error {
	values := make(map[string]map[string]string)
	for _, sec := range snapshot(ctx, s) {
		values[sec.name] = sec.values
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(values); err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	return nil
}
