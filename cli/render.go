package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/DeafMist/intel-radar/backend/internal/models"
)

func render(w io.Writer, format string, resp models.Response) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if resp.Status == models.StatusError {
		_, err := fmt.Fprintln(w, "error:", resp.Message)
		return err
	}
	if resp.Data == nil {
		return nil
	}

	switch content := resp.Data.Content.(type) {
	case string:
		_, err := fmt.Fprintln(w, content)
		return err
	case []models.Block:
		for _, b := range content {
			var err error
			switch b.Type {
			case models.BlockParagraph:
				_, err = fmt.Fprintf(w, "%s\n\n", b.Text)
			case models.BlockImage:
				_, err = fmt.Fprintf(w, "[image] %s (from %s)\n", b.Content, b.Source)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
