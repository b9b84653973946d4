// Package main implements attendctl, which analyzes attendance reports from
// the command line without running the server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"attendance-analyzer-go/attendance"
	"attendance-analyzer-go/config"
	"attendance-analyzer-go/db"
	"attendance-analyzer-go/logging"
	"attendance-analyzer-go/models"
	"attendance-analyzer-go/pdftext"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cliOptions struct {
	logLevel  string
	xlsxPath  string
	threshold float64
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "attendctl",
		Short: "Analyze attendance reports offline",
		Long: `attendctl extracts attendance rows from a report and prints the
computed statistics as JSON.

Input files may be PDF (.pdf), an xlsx workbook laid out like the export
(.xlsx), or text already extracted from a report (anything else).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Print the dataset summary",
		Long: `Print the dataset summary, with every student record.

Examples:
  attendctl analyze april.pdf
  attendctl analyze april.pdf --xlsx april.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := loadSummary(opts, args[0])
			if err != nil {
				return err
			}
			if opts.xlsxPath != "" {
				if err := writeWorkbook(opts.xlsxPath, args[0], summary); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	analyzeCmd.Flags().StringVar(&opts.xlsxPath, "xlsx", "", "also write the dataset to this xlsx file")

	studentCmd := &cobra.Command{
		Use:   "student <file> <rollNo>",
		Short: "Print one student's record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rollNo, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("roll number must be an integer: %q", args[1])
			}
			summary, err := loadSummary(opts, args[0])
			if err != nil {
				return err
			}
			student, err := attendance.FindStudent(summary, rollNo)
			if err != nil {
				return fmt.Errorf("roll number %d: %w", rollNo, err)
			}
			return printJSON(cmd.OutOrStdout(), student)
		},
	}

	lowCmd := &cobra.Command{
		Use:   "low <file>",
		Short: "Print students below the attendance threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := loadSummary(opts, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), attendance.LowAttendance(summary, opts.threshold))
		},
	}
	lowCmd.Flags().Float64Var(&opts.threshold, "threshold", attendance.LowAttendanceThreshold, "attendance percent below which a student is listed")

	root.AddCommand(analyzeCmd, studentCmd, lowCmd)
	return root
}

// loadSummary reads path and analyzes it according to its extension
func loadSummary(opts *cliOptions, path string) (*models.DatasetSummary, error) {
	logger, err := logging.New(config.LoggingConfig{Level: opts.logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, err
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("file", path))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		rows, err := db.ReadRowsExcel(f)
		if err != nil {
			return nil, err
		}
		logger.Debug("read workbook rows", zap.Int("rows", len(rows)))
		return attendance.Aggregate(rows)
	default:
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		text := string(content)
		if pdftext.IsPDFFileName(path) {
			if text, err = pdftext.ExtractBytes(content); err != nil {
				return nil, err
			}
		}
		logger.Debug("extracted text", zap.Int("text_len", len(text)))
		summary, err := attendance.Analyze(text)
		if err != nil {
			return nil, err
		}
		logger.Info("analyzed report", zap.Int("students", summary.TotalStudents))
		return summary, nil
	}
}

func writeWorkbook(path, source string, summary *models.DatasetSummary) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	ds := &models.Dataset{ID: filepath.Base(source), FileName: filepath.Base(source), Summary: summary}
	if err := db.WriteDatasetExcel(out, ds); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
