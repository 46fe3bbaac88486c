// SPDX-License-Identifier: MPL-2.0
/*
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package cli wires the conversion pipeline to its command-line front end.
package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/labstreams/tdmsx/convert"
	"github.com/labstreams/tdmsx/internal/config"
	"github.com/labstreams/tdmsx/internal/output"
	"github.com/labstreams/tdmsx/internal/version"
)

type Dependencies struct {
	Config *config.Config
}

// NewRootCmd builds the tdmsx command. PATH is a required positional
// argument, and the list-valued options take comma-separated values, so a
// variadic option can never absorb the path.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	var (
		displayInfo bool
		saveInfo    bool
		channels    []int
		timeTrack   bool
		compress    bool
		split       bool
		names       []string
		formatName  string
		sampleRate  int
		outputDir   string
	)

	rootCmd := &cobra.Command{
		Use:   "tdmsx [flags] PATH",
		Short: "Convert NI TDMS recordings to common scientific data formats",
		Long: "tdmsx converts National Instruments TDMS recordings to npy/npz, MAT,\n" +
			"WAV, or CSV files. PATH is a TDMS file or a folder of them; converted\n" +
			"files are written beside their sources unless --output_dir is given.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(cmd.OutOrStdout())

			// The display path only reads metadata, so conversion options
			// are not validated there.
			if displayInfo {
				return displayMetadata(args[0], formatter, cmd)
			}

			format, err := convert.ParseFormat(formatName)
			if err != nil {
				return err
			}

			cfg := convert.Config{
				Format:     format,
				Split:      split,
				Compress:   compress,
				TimeTrack:  timeTrack,
				SampleRate: sampleRate,
				OutputDir:  outputDir,
				Channels:   channels,
				Names:      names,
				SaveInfo:   saveInfo,
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runBatch(args[0], cfg, formatter)
		},
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.Flags().BoolP("version", "v", false, "display version number and exit")

	rootCmd.Flags().BoolVarP(&displayInfo, "display_info", "d", false,
		"print file meta info to the console and exit, nothing is saved")
	rootCmd.Flags().BoolVarP(&saveInfo, "meta_save2file", "m", false,
		"also save the meta info to a .info sidecar file")
	rootCmd.Flags().IntSliceVarP(&channels, "channel_selection", "c", nil,
		"comma-separated zero-based channel indices to export (default: all)")
	rootCmd.Flags().BoolVarP(&timeTrack, "time_track", "t", false,
		"prepend a time track column derived from the sampling interval")
	rootCmd.Flags().BoolVarP(&compress, "zip_compression", "z", false,
		"compress the output where the format supports it (no effect on csv)")
	rootCmd.Flags().BoolVarP(&split, "split_file", "s", false,
		"save each channel to a separate file")
	rootCmd.Flags().StringSliceVarP(&names, "name_channel", "n", nil,
		"comma-separated output labels, order-aligned with the selection; with\n"+
			"-t the first label names the time column")
	rootCmd.Flags().StringVarP(&formatName, "output_format", "o", deps.Config.Format,
		"output format: npy, mat, wav, or csv")
	rootCmd.Flags().IntVarP(&sampleRate, "rate_sampling", "r", deps.Config.SampleRate,
		"sampling rate in Hz, required for wav output")
	rootCmd.Flags().StringVar(&outputDir, "output_dir", deps.Config.OutputDir,
		"directory for converted files (default: beside each source)")

	return rootCmd
}

// displayMetadata prints the metadata of every source under path without
// converting anything.
func displayMetadata(path string, formatter *output.Formatter, cmd *cobra.Command) error {
	files, err := convert.List(path)
	if err != nil {
		return err
	}

	failed := 0
	for _, file := range files {
		src, err := convert.Open(file)
		if err != nil {
			formatter.Error(err.Error())
			failed++
			continue
		}
		fmt.Fprint(cmd.OutOrStdout(), convert.Info(src))
		src.Close()
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be read", failed, len(files))
	}
	return nil
}

// runBatch converts all sources under path, driving a progress bar for
// multi-file batches.
func runBatch(path string, cfg convert.Config, formatter *output.Formatter) error {
	if cfg.Compress && cfg.Format == convert.FormatCSV {
		formatter.Notice("csv has no compressed variant, -z is ignored")
	}

	var bar *progressbar.ProgressBar
	summary, err := convert.Run(path, cfg, func(index, total int, file string) {
		if total <= 1 {
			formatter.Processing(index, total, file)
			return
		}
		if bar == nil {
			bar = progressbar.Default(int64(total), "converting")
		} else {
			_ = bar.Add(1)
		}
	})
	if err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Add(1)
		_ = bar.Finish()
	}

	for _, c := range summary.Converted {
		formatter.Written(c.Outputs)
	}
	formatter.Summary(summary)

	if !summary.OK() {
		return fmt.Errorf("%d of %d files failed",
			len(summary.Failed), len(summary.Failed)+len(summary.Converted))
	}
	return nil
}
