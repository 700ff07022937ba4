// ABOUTME: Document commands for the academix CLI
// ABOUTME: Lists, uploads and deletes the student's documents through the synchronizer

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/academix/academix-cli/internal/client"
	"github.com/academix/academix-cli/internal/config"
	"github.com/academix/academix-cli/internal/documents"
	"github.com/academix/academix-cli/internal/tui/icons"
	"github.com/academix/academix-cli/internal/tui/recentfiles"
)

var uploadName string

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage uploaded documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded documents",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runDocsList(ctx, os.Stdout); code != 0 {
			os.Exit(code)
		}
	},
}

var docsUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document",
	Long: `Upload a local file as a document. The list is fetched again after a
successful upload.

Example:
  academix docs upload ~/Downloads/week1.pdf --name "Week 1 notes"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runDocsUpload(ctx, os.Stdout, args[0], uploadName); code != 0 {
			os.Exit(code)
		}
	},
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document by id",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if code := runDocsDelete(ctx, os.Stdout, args[0]); code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	docsUploadCmd.Flags().StringVar(&uploadName, "name", "", "Document name (default: file name without extension)")
	docsCmd.AddCommand(docsListCmd, docsUploadCmd, docsDeleteCmd)
	rootCmd.AddCommand(docsCmd)
}

// documentView is the JSON shape of a listed document.
type documentView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	File string `json:"file,omitempty"`
	URL  string `json:"url"`
}

func viewDocuments(docs []client.Document) []documentView {
	out := make([]documentView, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentView{ID: documents.ID(d), Name: d.Name, File: d.OriginalName, URL: d.URL})
	}
	return out
}

func loadSynchronizer(ctx context.Context, s *session) (*documents.Synchronizer, error) {
	sync := documents.New(s.client)
	if err := sync.Load(ctx); err != nil {
		return nil, err
	}
	return sync, nil
}

func runDocsList(ctx context.Context, w io.Writer) int {
	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer s.Close()

	sync, err := loadSynchronizer(ctx, s)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitCodeFor(err)
	}

	docs := sync.Documents()
	if IsJSONOutput() {
		printJSON(w, viewDocuments(docs))
	} else {
		fmt.Fprint(w, formatDocsHuman(docs))
	}
	return 0
}

// formatDocsHuman renders documents as an aligned table
func formatDocsHuman(docs []client.Document) string {
	if len(docs) == 0 {
		return "No documents uploaded.\n"
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFILE\tURL")
	for _, d := range docs {
		name := d.Name
		if name == "" {
			name = d.DisplayName()
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n", documents.ID(d), icons.ForFile(d.DisplayName()).String(), name, d.OriginalName, d.URL)
	}
	tw.Flush()
	return sb.String()
}

func runDocsUpload(ctx context.Context, w io.Writer, path, name string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer f.Close()

	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer s.Close()

	sync := documents.New(s.client)
	if err := sync.Upload(ctx, name, filepath.Base(path), f); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitCodeFor(err)
	}

	if err := recentfiles.New(config.DefaultDir()).Add(path, name); err != nil {
		slog.Warn("Failed to record recent upload", "path", path, "error", err)
	}

	if IsJSONOutput() {
		printJSON(w, map[string]any{"uploaded": name, "documents": viewDocuments(sync.Documents())})
		return 0
	}
	fmt.Fprintf(w, "Uploaded %s (%d documents)\n", name, len(sync.Documents()))
	if err := sync.Err(); err != nil {
		fmt.Fprintf(w, "Warning: list refresh failed: %v\n", err)
	}
	return 0
}

func runDocsDelete(ctx context.Context, w io.Writer, id string) int {
	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer s.Close()

	sync, err := loadSynchronizer(ctx, s)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitCodeFor(err)
	}

	name := id
	for _, d := range sync.Documents() {
		if documents.ID(d) == id {
			name = d.DisplayName()
			break
		}
	}

	if err := sync.Remove(ctx, id); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitCodeFor(err)
	}

	if IsJSONOutput() {
		printJSON(w, map[string]any{"deleted": id, "documents": viewDocuments(sync.Documents())})
		return 0
	}
	fmt.Fprintf(w, "Deleted %s\n", name)
	return 0
}
