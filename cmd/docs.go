package cmd

import (
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/longkey1/suvidha/internal/config"
	"github.com/longkey1/suvidha/internal/docs"
	"github.com/spf13/cobra"
)

var (
	downloadAll bool
	downloadDir string
)

// docsCmd represents the docs command
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List and download the reference documents",
	Long: `List and download the documents the assistant answers from:
the General Financial Rules (GFR) 2017 and the Procurement Manual (PM) 2025.`,
}

// docsListCmd represents the docs list command
var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the reference documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		out := cmd.OutOrStdout()
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SLUG\tTITLE\tSIZE\tUPDATED\tURL")
		fmt.Fprintln(w, "----\t-----\t----\t-------\t---")
		for _, doc := range docs.All() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				doc.Slug,
				doc.Title,
				doc.Size,
				doc.LastUpdated,
				doc.URL(cfg.WebURL),
			)
		}
		w.Flush()

		fmt.Fprintln(out, "\nUse 'suvidha docs download <slug>' or 'suvidha docs download --all' to save a copy.")
		return nil
	},
}

// docsDownloadCmd represents the docs download command
var docsDownloadCmd = &cobra.Command{
	Use:   "download [slug...]",
	Short: "Download reference documents",
	Long: `Download one or more reference documents by slug (gfr, pm), source name or file name.
Use --all to download every document. Files are saved to download_dir unless --dir is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		var documents []docs.Document
		switch {
		case downloadAll && len(args) > 0:
			return fmt.Errorf("cannot specify both --all and document names")
		case downloadAll:
			documents = docs.All()
		case len(args) == 0:
			return fmt.Errorf("specify a document (gfr, pm) or --all")
		default:
			for _, name := range args {
				doc, err := docs.Lookup(name)
				if err != nil {
					return err
				}
				documents = append(documents, doc)
			}
		}

		dir := cfg.DownloadDir
		if downloadDir != "" {
			dir, err = config.ResolvePath(downloadDir)
			if err != nil {
				return fmt.Errorf("resolving download directory: %w", err)
			}
		}

		results, err := docs.DownloadAll(cmd.Context(), &http.Client{}, cfg.WebURL, documents, dir)
		if err != nil {
			return fmt.Errorf("downloading documents: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, res := range results {
			fmt.Fprintf(out, "Downloaded %s to %s (%s)\n", res.Document.Source, res.Path, humanize.Bytes(uint64(res.Bytes)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsDownloadCmd)

	docsDownloadCmd.Flags().BoolVar(&downloadAll, "all", false, "Download all documents")
	docsDownloadCmd.Flags().StringVar(&downloadDir, "dir", "", "Directory to save the documents to (default is download_dir)")
}
