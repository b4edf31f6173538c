package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aleister1102/mediascout/internal/discovery"
	"github.com/aleister1102/mediascout/internal/models"
	"github.com/dustin/go-humanize"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printRunHeader(w io.Writer, run *models.AnalysisRun) {
	fmt.Fprintf(w, "Run:     %s\n", run.ID)
	fmt.Fprintf(w, "Target:  %s\n", run.TargetURL)
	if run.BaseURL != "" && run.BaseURL != run.TargetURL {
		fmt.Fprintf(w, "Base:    %s\n", run.BaseURL)
	}
	fmt.Fprintf(w, "Status:  %s\n", run.Status)
	fmt.Fprintf(w, "Created: %s\n", humanize.Time(run.CreatedAt))
	if run.ErrorMessage != "" {
		fmt.Fprintf(w, "Error:   %s\n", run.ErrorMessage)
	}
}

// printGrouped lists descriptors under the five category headings.
func printGrouped(w io.Writer, descriptors []models.AssetDescriptor) {
	grouped := discovery.GroupByCategory(descriptors)
	fmt.Fprintf(w, "\n%d assets\n", grouped.Count())
	for _, category := range models.Categories {
		bucket := grouped[category]
		if len(bucket) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s (%d)\n", category, len(bucket))
		tw := newTable(w)
		for _, d := range bucket {
			url := d.ResolvedURL
			if d.IsExternalEmbed {
				url += " [embed]"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", d.Filename, models.FormatSize(d.SizeBytes), orDash(d.MimeType), url)
		}
		tw.Flush()
	}
}

func printStoredAssets(w io.Writer, assets []models.StoredAsset) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCATEGORY\tFILENAME\tSIZE\tDOWNLOAD\tURL")
	for _, a := range assets {
		d := a.Descriptor
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, d.Category, d.Filename, models.FormatSize(d.SizeBytes), a.DownloadStatus, d.ResolvedURL)
	}
	tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
