// Package input loads UserRecords from the files the upstream collector writes.
package input

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/outreachkit/prospector/internal/pipeline"
)

// LoadFile reads UserRecords from a .json or .csv file, chosen by extension.
func LoadFile(path string) ([]pipeline.UserRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(f)
	case ".csv":
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported input format %q", filepath.Ext(path))
	}
}

// ReadJSON decodes a JSON array of UserRecords.
func ReadJSON(r io.Reader) ([]pipeline.UserRecord, error) {
	var users []pipeline.UserRecord
	if err := json.NewDecoder(r).Decode(&users); err != nil {
		return nil, fmt.Errorf("decode user records: %w", err)
	}
	return validate(users)
}

// ReadCSV decodes UserRecords from CSV with a header row of
// user_id,full_name,bio_text,declared_links; links are separated by "|".
func ReadCSV(r io.Reader) ([]pipeline.UserRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := index["user_id"]; !ok {
		return nil, fmt.Errorf("csv header is missing user_id")
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var users []pipeline.UserRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		user := pipeline.UserRecord{
			UserID:   field(row, "user_id"),
			FullName: field(row, "full_name"),
			BioText:  field(row, "bio_text"),
		}
		if links := field(row, "declared_links"); links != "" {
			for _, link := range strings.Split(links, "|") {
				if link = strings.TrimSpace(link); link != "" {
					user.DeclaredLinks = append(user.DeclaredLinks, link)
				}
			}
		}
		users = append(users, user)
	}
	return validate(users)
}

func validate(users []pipeline.UserRecord) ([]pipeline.UserRecord, error) {
	seen := make(map[string]struct{}, len(users))
	for i, user := range users {
		if user.UserID == "" {
			return nil, fmt.Errorf("record %d has no user_id", i)
		}
		if _, dup := seen[user.UserID]; dup {
			return nil, fmt.Errorf("duplicate user_id %q", user.UserID)
		}
		seen[user.UserID] = struct{}{}
	}
	return users, nil
}
