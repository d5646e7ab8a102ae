package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/documents"
	"github.com/spf13/cobra"
)

// mediaType guesses the declared type of a local file from its extension
func mediaType(path string) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return t
}

func readFile(path string) (documents.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return documents.File{}, err
	}
	return documents.File{Name: filepath.Base(path), MediaType: mediaType(path), Content: content}, nil
}

func (a *app) docsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Verify customs documents",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "upload <file.pdf>...",
		Short: "Upload PDFs for verification (" + documents.SizeHint + ")",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.user(); err != nil {
				return err
			}
			page := documents.NewPage(a.api)
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				f, err := readFile(path)
				if err != nil {
					return err
				}
				doc, err := page.Browse(cmd.Context(), f)
				if err != nil {
					failed++
				}
				fmt.Fprintln(out, page.Status())
				if doc != nil && doc.Analysis != "" {
					fmt.Fprintf(out, "%s\n", doc.Analysis)
				}
			}

			history := page.History()
			if len(history) > 0 {
				fmt.Fprintln(out, "\nUploaded this session:")
				for _, d := range history {
					state := "not verified"
					if d.Verified {
						state = "verified"
					}
					fmt.Fprintf(out, "  %s  %s  %s  %s\n", d.ID, d.Name, state, d.UploadedAt.Format("2006-01-02 15:04:05"))
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents could not be uploaded", failed, len(args))
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List documents kept on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.user(); err != nil {
				return err
			}
			docs, err := a.api.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(out, "No documents yet.")
				return nil
			}
			for _, d := range docs {
				state := "not verified"
				if d.Verified {
					state = "verified"
				}
				fmt.Fprintf(out, "%s  %s  %s  %s  %s\n", d.ID, d.Filename, d.DocumentType, state, d.UploadedAt.Format("2006-01-02 15:04:05"))
				if d.DownloadURL != "" {
					fmt.Fprintf(out, "  %s\n", d.DownloadURL)
				}
			}
			return nil
		},
	})
	return cmd
}
