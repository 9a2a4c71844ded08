// Package content is the typed layer between the admin API and the raw
// document codec: posts and pages as Go structs on the way in, frontmatter
// Markdown and YAML-subset files on the way out.
package content

import (
	"strconv"
	"strings"
	"time"

	"github.com/repstack/repstack/internal/frontmatter"
	"github.com/repstack/repstack/internal/miniyaml"
)

// Stat is one workout-stats record (number + label) rendered on the blog.
type Stat struct {
	Number string `json:"number"`
	Label  string `json:"label"`
}

// Post is the typed view over one post document. The embedded meta mapping
// keeps every frontmatter field in authored order; the struct fields mirror
// the known ones. Saving writes the known fields back into the mapping in
// place, so fields the admin UI does not model keep their position and
// survive an edit cycle untouched.
type Post struct {
	Slug      string   `json:"slug"`
	UID       string   `json:"uid,omitempty"`
	Title     string   `json:"title"`
	Date      string   `json:"date,omitempty"`
	Published string   `json:"published,omitempty"`
	Draft     bool     `json:"draft"`
	Summary   string   `json:"summary,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Stats     []Stat   `json:"stats,omitempty"`
	Body      string   `json:"body"`
	SHA       string   `json:"sha,omitempty"`

	meta miniyaml.Mapping
}

// Summary is the listing view of a post, cheap enough for an index page.
type Summary struct {
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Date      string   `json:"date,omitempty"`
	Published string   `json:"published,omitempty"`
	Draft     bool     `json:"draft"`
	Tags      []string `json:"tags,omitempty"`
	SHA       string   `json:"sha"`
}

// Page is a standalone YAML-subset document, such as the about profile.
type Page struct {
	Name string           `json:"name"`
	Data miniyaml.Mapping `json:"data"`
	SHA  string           `json:"sha,omitempty"`
}

// PostFromDocument builds the typed view over a split document.
func PostFromDocument(slug string, doc frontmatter.Document, sha string) Post {
	meta := doc.Meta
	return Post{
		Slug:      slug,
		UID:       meta.String("uid"),
		Title:     meta.String("title"),
		Date:      meta.String("date"),
		Published: meta.String("published"),
		Draft:     boolField(meta, "draft"),
		Summary:   meta.String("summary"),
		Tags:      tagsField(meta),
		Stats:     statsField(meta),
		Body:      doc.Body,
		SHA:       sha,
		meta:      meta.Clone(),
	}
}

// Document rebuilds the frontmatter document for saving. Known fields
// overwrite their original entries in place; cleared optional fields are
// dropped.
func (p Post) Document() frontmatter.Document {
	meta := p.meta.Clone()
	if meta == nil {
		meta = miniyaml.Mapping{}
	}

	meta = meta.Set("title", miniyaml.Scalar(p.Title))
	meta = setOrDelete(meta, "date", p.Date)
	meta = setOrDelete(meta, "uid", p.UID)
	meta = setOrDelete(meta, "summary", p.Summary)
	meta = setOrDelete(meta, "published", p.Published)

	// Absent draft already reads as false; only materialize the key when
	// it carries information or was authored explicitly.
	if p.Draft || meta.Has("draft") {
		meta = meta.Set("draft", miniyaml.Scalar(strconv.FormatBool(p.Draft)))
	}

	if len(p.Tags) > 0 {
		list := make(miniyaml.List, 0, len(p.Tags))
		for _, tag := range p.Tags {
			list = append(list, miniyaml.Mapping{{Key: "text", Value: miniyaml.Scalar(tag)}})
		}
		meta = meta.Set("tags", list)
	} else {
		meta = meta.Delete("tags")
	}

	if len(p.Stats) > 0 {
		list := make(miniyaml.List, 0, len(p.Stats))
		for _, stat := range p.Stats {
			list = append(list, miniyaml.Mapping{
				{Key: "number", Value: miniyaml.Scalar(stat.Number)},
				{Key: "label", Value: miniyaml.Scalar(stat.Label)},
			})
		}
		meta = meta.Set("stats", list)
	} else {
		meta = meta.Delete("stats")
	}

	return frontmatter.Document{Meta: meta, Body: p.Body}
}

// ToSummary reduces the post to its listing view.
func (p Post) ToSummary() Summary {
	return Summary{
		Slug:      p.Slug,
		Title:     p.Title,
		Date:      p.Date,
		Published: p.Published,
		Draft:     p.Draft,
		Tags:      p.Tags,
		SHA:       p.SHA,
	}
}

// PublishAt returns the scheduled publication time for a future-dated
// draft. The second return is false when no valid timestamp is set.
func (p Post) PublishAt() (time.Time, bool) {
	return ParsePublishTime(p.Published)
}

// PublishAt is the Summary counterpart of Post.PublishAt.
func (s Summary) PublishAt() (time.Time, bool) {
	return ParsePublishTime(s.Published)
}

// ParsePublishTime reads a frontmatter `published` value, accepting a
// full RFC 3339 timestamp or a bare date (midnight UTC).
func ParsePublishTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, true
	}
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

// Frontmatter fields arrive shape-free from the permissive parser, so
// every consumption site matches all value kinds and degrades to the zero
// value rather than failing.

func boolField(meta miniyaml.Mapping, key string) bool {
	v, ok := meta.Get(key)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case miniyaml.Scalar:
		b, err := strconv.ParseBool(strings.TrimSpace(string(t)))
		return err == nil && b
	case miniyaml.List:
		return false
	case miniyaml.Mapping:
		return false
	default:
		return false
	}
}

func tagsField(meta miniyaml.Mapping) []string {
	v, ok := meta.Get("tags")
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case miniyaml.Scalar:
		if s := strings.TrimSpace(string(t)); s != "" {
			return []string{s}
		}
		return nil
	case miniyaml.List:
		tags := t.Strings()
		if len(tags) == 0 {
			return nil
		}
		return tags
	case miniyaml.Mapping:
		return nil
	default:
		return nil
	}
}

func statsField(meta miniyaml.Mapping) []Stat {
	v, ok := meta.Get("stats")
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case miniyaml.List:
		stats := make([]Stat, 0, len(t))
		for _, item := range t {
			switch rec := item.(type) {
			case miniyaml.Mapping:
				stats = append(stats, Stat{Number: rec.String("number"), Label: rec.String("label")})
			case miniyaml.Scalar:
				stats = append(stats, Stat{Label: string(rec)})
			}
		}
		if len(stats) == 0 {
			return nil
		}
		return stats
	case miniyaml.Scalar:
		return nil
	case miniyaml.Mapping:
		return nil
	default:
		return nil
	}
}

func setOrDelete(meta miniyaml.Mapping, key, value string) miniyaml.Mapping {
	if value == "" {
		return meta.Delete(key)
	}
	return meta.Set(key, miniyaml.Scalar(value))
}
