package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/pkg/log"
	"github.com/worklift/worklift/util"
)

// timestampLayout names artifacts so that a lexical sort on filenames is
// also a chronological one.
const timestampLayout = "20060102_150405"

// Writer renders export artifacts into an output directory.
type Writer struct {
	logger    log.Logger
	outputDir string
	format    Format
}

// NewWriter creates a Writer for the given directory and format.
func NewWriter(logger log.Logger, outputDir string, format Format) *Writer {
	return &Writer{
		logger:    logger.WithField(log.FieldKeyPrefix, "report"),
		outputDir: outputDir,
		format:    format,
	}
}

// Write renders the selected artifacts and returns the paths it created,
// CSV first. Nothing is written when the export has no entries.
func (writer *Writer) Write(ctx context.Context, data *Data) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.New(err)
	}

	if len(data.Entries) == 0 {
		writer.logger.Warnf("No worklog entries found, skipping export.")

		return nil, nil
	}

	if data.Stats == nil {
		data.Stats = Aggregate(data.Entries)
	}

	if err := util.EnsureDirectory(writer.outputDir); err != nil {
		return nil, err
	}

	base := fmt.Sprintf("%s_worklogs_%s", strings.ToLower(data.Project), data.GeneratedAt.Format(timestampLayout))

	var (
		errGroup errgroup.Group
		mu       sync.Mutex
		paths    []string
	)

	render := func(path string, renderFn func(io.Writer) error) {
		errGroup.Go(func() error {
			if err := writer.writeFile(path, renderFn); err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()

			paths = append(paths, path)

			return nil
		})
	}

	if writer.format == FormatCSV || writer.format == FormatBoth {
		render(filepath.Join(writer.outputDir, base+".csv"), func(w io.Writer) error {
			return WriteCSV(w, data.Entries)
		})
	}

	if writer.format == FormatHTML || writer.format == FormatBoth {
		render(filepath.Join(writer.outputDir, base+".html"), func(w io.Writer) error {
			return WriteHTML(w, data)
		})
	}

	if err := errGroup.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(paths)

	for _, path := range paths {
		writer.logger.Infof("Exported %s.", path)
	}

	return paths, nil
}

func (writer *Writer) writeFile(path string, renderFn func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.New(err)
	}

	if err := renderFn(file); err != nil {
		file.Close()

		return err
	}

	return errors.New(file.Close())
}
