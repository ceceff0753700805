package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/programme-lv/harness/api"
)

// writeReports writes one report as an object and several as an array.
func writeReports(path string, reports []*api.Report) (err error) {
	var v interface{} = reports
	if len(reports) == 1 {
		v = reports[0]
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close report file: %w", cerr)
		}
	}()

	return encodeReport(f, strings.HasSuffix(path, ".zst"), data)
}

// encodeReport writes data to w, as a zstd frame when compress is set. The
// frame is only complete once the encoder is closed, so its Close error is
// the write error.
func encodeReport(w io.Writer, compress bool, data []byte) (err error) {
	if compress {
		enc, zerr := zstd.NewWriter(w)
		if zerr != nil {
			return fmt.Errorf("failed to create zstd writer: %w", zerr)
		}
		defer func() {
			if cerr := enc.Close(); err == nil && cerr != nil {
				err = fmt.Errorf("failed to finish zstd frame: %w", cerr)
			}
		}()
		w = enc
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
