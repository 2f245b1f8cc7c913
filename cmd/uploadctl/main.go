// uploadctl uploads files to a FileDrop server from the command line.
//
// Usage:
//
//	uploadctl -server http://localhost:8090 -project demo -category logs file1.log file2.log
package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/filedrop/backend/internal/models"
	"github.com/filedrop/backend/internal/rules"
	"github.com/filedrop/backend/internal/transport"
	"github.com/filedrop/backend/internal/uploader"
)

func main() {
	var (
		serverURL   = flag.String("server", "http://localhost:8090", "FileDrop server base URL")
		projectID   = flag.String("project", "", "project identifier attached to the upload")
		category    = flag.String("category", "general", "upload category")
		description = flag.String("description", "", "optional description")
		tags        = flag.String("tags", "", "comma-separated tags")
		rulesFile   = flag.String("rules", "", "path to an upload rules YAML file")
		batchSize   = flag.Int("batch-size", 0, "override the batch size from the rules file")
		maxFiles    = flag.Int("max-files", 0, "override the per-run file ceiling")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "uploadctl: no files given")
		flag.Usage()
		os.Exit(2)
	}

	uploadRules, err := rules.Load(*rulesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "uploadctl: loading rules: %v\n", err)
		os.Exit(1)
	}
	if *batchSize > 0 {
		uploadRules.BatchSize = *batchSize
	}

	candidates, err := readCandidates(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "uploadctl: %v\n", err)
		os.Exit(1)
	}

	var tagList []string
	if *tags != "" {
		for _, t := range strings.Split(*tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tagList = append(tagList, t)
			}
		}
	}

	failed := false
	u := uploader.New(transport.NewClient(*serverURL), uploadRules, uploader.Options{
		ProjectID:   *projectID,
		Category:    *category,
		Description: *description,
		Tags:        tagList,
		MaxFiles:    *maxFiles,
		OnProgress: func(percent int) {
			fmt.Printf("progress: %d%%\n", percent)
		},
		OnError: func(message string) {
			failed = true
			fmt.Fprintf(os.Stderr, "error: %s\n", message)
		},
		OnSuccess: func(files []*models.UploadedFile) {
			for _, f := range files {
				fmt.Printf("uploaded: %s (%d bytes) id=%s\n", f.Name, f.Size, f.ID)
			}
		},
	})

	if err := u.UploadFiles(context.Background(), candidates); err != nil {
		fmt.Fprintf(os.Stderr, "uploadctl: %v\n", err)
		os.Exit(1)
	}
	if failed {
		os.Exit(1)
	}
}

// readCandidates loads each path into memory with a content type
// guessed from its extension.
func readCandidates(paths []string) ([]uploader.Candidate, error) {
	candidates := make([]uploader.Candidate, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		contentType := mime.TypeByExtension(filepath.Ext(p))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		candidates = append(candidates, uploader.Candidate{
			Name:        filepath.Base(p),
			ContentType: contentType,
			Data:        data,
		})
	}
	return candidates, nil
}
