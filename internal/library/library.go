// Package library loads and manages the reference pose library.
//
// The library is a single JSON document of labeled exemplar captures. Raw
// landmark coordinates are stored on disk; normalization happens once at load
// so scoring never re-normalizes references. Exemplars that cannot be
// normalized are skipped with a warning rather than failing the whole load.
package library

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"vinyasa/internal/fileutil"
	"vinyasa/internal/logging"
	"vinyasa/internal/pose"
	"vinyasa/internal/textutil"
)

// suggestMinSimilarity is the floor below which a fuzzy label match is
// considered meaningless and no suggestion is offered.
const suggestMinSimilarity = 0.3

// Exemplar is one recorded reference capture for a pose label.
type Exemplar struct {
	Source    string                `json:"source,omitempty"`
	Landmarks map[string]pose.Point `json:"landmarks"`
}

// Entry groups the stored exemplars for one pose label.
type Entry struct {
	Label     string     `json:"label"`
	Exemplars []Exemplar `json:"exemplars"`
}

type document struct {
	Version int     `json:"version"`
	Poses   []Entry `json:"poses"`
}

const documentVersion = 1

// Library holds the reference poses for a session, immutable while scoring.
type Library struct {
	path         string
	scaleEpsilon float64
	logger       *slog.Logger

	raw        map[string][]Exemplar
	normalized map[string][]pose.Normalized
}

// Load reads the library document at path and normalizes every exemplar.
// A missing file yields an empty library so first runs can import captures
// before any scoring happens.
func Load(path string, scaleEpsilon float64, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	lib := &Library{
		path:         path,
		scaleEpsilon: scaleEpsilon,
		logger:       logger,
		raw:          make(map[string][]Exemplar),
		normalized:   make(map[string][]pose.Normalized),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Info("pose library not found, starting empty", logging.String("path", path))
		return lib, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pose library: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode pose library %s: %w", path, err)
	}

	for _, entry := range doc.Poses {
		lib.addEntry(entry)
	}

	logger.Info("pose library loaded",
		logging.String("path", path),
		logging.Int("poses", len(lib.normalized)),
		logging.Int("exemplars", lib.ExemplarCount()),
	)
	return lib, nil
}

func (l *Library) addEntry(entry Entry) {
	label := textutil.SanitizeToken(entry.Label)
	if label == "unknown" {
		logging.WarnWithContext(l.logger, "pose entry has no usable label, skipped", "library_entry_skipped",
			logging.String("label", entry.Label),
			logging.String(logging.FieldErrorHint, "give every pose entry a non-empty label"),
			logging.String(logging.FieldImpact, "entry will never match a live pose"),
		)
		return
	}

	for _, exemplar := range entry.Exemplars {
		norm, err := pose.Normalize(pose.Frame{Landmarks: exemplar.Landmarks}, pose.KeyJoints, l.scaleEpsilon)
		if err != nil {
			logging.WarnWithContext(l.logger, "exemplar cannot be normalized, skipped", "library_exemplar_skipped",
				logging.String(logging.FieldPose, label),
				logging.String("source", exemplar.Source),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "recapture the exemplar with all key joints visible"),
				logging.String(logging.FieldImpact, "one fewer reference for this pose"),
			)
			continue
		}
		l.raw[label] = append(l.raw[label], exemplar)
		l.normalized[label] = append(l.normalized[label], norm)
	}
}

// Labels returns the loaded pose labels in sorted order.
func (l *Library) Labels() []string {
	labels := make([]string, 0, len(l.normalized))
	for label := range l.normalized {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Exemplars returns the normalized exemplars for a label.
func (l *Library) Exemplars(label string) []pose.Normalized {
	return l.normalized[label]
}

// Len returns the number of pose labels with at least one usable exemplar.
func (l *Library) Len() int {
	return len(l.normalized)
}

// ExemplarCount returns the total number of usable exemplars across labels.
func (l *Library) ExemplarCount() int {
	total := 0
	for _, exemplars := range l.normalized {
		total += len(exemplars)
	}
	return total
}

// Resolve maps a user-supplied pose name to a loaded label. It tries the
// sanitized form first, so "Tree Pose" resolves to "tree_pose".
func (l *Library) Resolve(query string) (string, bool) {
	label := textutil.SanitizeToken(query)
	if _, ok := l.normalized[label]; ok {
		return label, true
	}
	return "", false
}

// Suggest returns the closest loaded label for a query that did not resolve,
// for "did you mean" hints on the command line.
func (l *Library) Suggest(query string) (string, bool) {
	queryFP := textutil.NewFingerprint(textutil.HumanizeLabel(query))
	if queryFP == nil {
		return "", false
	}
	best := ""
	bestSim := 0.0
	for _, label := range l.Labels() {
		sim := textutil.CosineSimilarity(queryFP, textutil.NewFingerprint(textutil.HumanizeLabel(label)))
		if sim > bestSim {
			best, bestSim = label, sim
		}
	}
	if bestSim < suggestMinSimilarity {
		return "", false
	}
	return best, true
}

// Import merges the poses from another library document or a single capture
// file into this library and saves the result. The previous library file is
// backed up with a verified copy before the rewrite. Returns the number of
// exemplars added.
func (l *Library) Import(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read import file: %w", err)
	}

	entries, err := decodeImport(data)
	if err != nil {
		return 0, fmt.Errorf("decode import file %s: %w", path, err)
	}

	before := l.ExemplarCount()
	for _, entry := range entries {
		l.addEntry(entry)
	}
	added := l.ExemplarCount() - before
	if added == 0 {
		return 0, nil
	}

	if _, err := os.Stat(l.path); err == nil {
		if err := fileutil.CopyFileVerified(l.path, l.path+".bak"); err != nil {
			return added, fmt.Errorf("back up pose library: %w", err)
		}
	}
	if err := l.Save(); err != nil {
		return added, err
	}
	return added, nil
}

// decodeImport accepts either a full library document or a single capture
// entry {"label": ..., "exemplars": [...]}.
func decodeImport(data []byte) ([]Entry, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err == nil && len(doc.Poses) > 0 {
		return doc.Poses, nil
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	if entry.Label == "" || len(entry.Exemplars) == 0 {
		return nil, fmt.Errorf("no poses found in document")
	}
	return []Entry{entry}, nil
}

// Save writes the library document atomically, sorted by label for
// deterministic output.
func (l *Library) Save() error {
	doc := document{Version: documentVersion}
	for _, label := range l.Labels() {
		doc.Poses = append(doc.Poses, Entry{Label: label, Exemplars: l.raw[label]})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pose library: %w", err)
	}
	if err := fileutil.WriteFileAtomic(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write pose library: %w", err)
	}
	return nil
}
