// Loading and saving of rep-genome directories.
//
// A directory holds three required files plus one optional one:
//
//	6.1.1.20.fasta   marker protein per representative (any *.fasta accepted)
//	complete.genomes genomeID<TAB>name, no header
//	K                line 1 kmer size, line 2 default min similarity score
//	rep_db.tbl       optional: repID<TAB>genomeID<TAB>score connect lists
//
// The persisted directory is the source of truth across runs; in-memory
// state is discarded unless saved.

package repdb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/SEEDtk/kernel-sub003/internal/util"
	"github.com/SEEDtk/kernel-sub003/logger"
	"github.com/SEEDtk/kernel-sub003/pkg/kmers"
	"go.uber.org/zap"
)

const (
	// MarkerFileName is the canonical FASTA name, after the EC number of
	// the seed protein (Phenylalanyl-tRNA synthetase alpha chain).
	MarkerFileName  = "6.1.1.20.fasta"
	GenomesFileName = "complete.genomes"
	ParmsFileName   = "K"
	ListFileName    = "rep_db.tbl"
)

var (
	genomeIDPattern  = regexp.MustCompile(`^\d+\.\d+$`)
	featureIDPattern = regexp.MustCompile(`^(?:fig\|)?(\d+\.\d+)\.[a-z]+\.\d+$`)
)

// LoadOptions adjusts Load behavior.
type LoadOptions struct {
	// AllowDefaults accepts a directory without a K file, falling back
	// to DefaultK / DefaultMinScore.
	AllowDefaults bool

	// DNA builds the index with canonical DNA k-mers instead of protein
	// ones. The directory layout is identical; nothing in it records the
	// alphabet, so the caller has to know which kind it has.
	DNA bool
}

// Load reads a rep-genome directory with strict file requirements.
func Load(dir string) (*DB, error) {
	return LoadWith(dir, LoadOptions{})
}

// LoadWith reads a rep-genome directory. Structural problems (missing
// files, unreadable content) abort; bad individual FASTA records are
// logged and skipped so one record cannot void the batch.
func LoadWith(dir string, opt LoadOptions) (*DB, error) {
	if !util.DirExists(dir) {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrMalformedDirectory, dir)
	}

	k, minScore, err := readParms(dir, opt)
	if err != nil {
		return nil, err
	}

	names, err := ReadNames(filepath.Join(dir, GenomesFileName))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDirectory, err)
	}

	markerFile, err := findMarkerFasta(dir)
	if err != nil {
		return nil, err
	}

	db := New(k, minScore)
	if opt.DNA {
		db.Alpha = kmers.DNA
	}
	if err := db.insertFromFasta(markerFile, names); err != nil {
		return nil, err
	}

	listFile := filepath.Join(dir, ListFileName)
	if util.FileExists(listFile) {
		if err := db.readList(listFile); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func readParms(dir string, opt LoadOptions) (int, int, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ParmsFileName))
	if err != nil {
		if os.IsNotExist(err) && opt.AllowDefaults {
			return DefaultK, DefaultMinScore, nil
		}
		return 0, 0, fmt.Errorf("%w: no %s file in %s", ErrMalformedDirectory, ParmsFileName, dir)
	}

	fields := strings.Fields(string(raw))
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("empty %s file in %s", ParmsFileName, dir)
	}

	k, err := strconv.Atoi(fields[0])
	if err != nil || k < 1 {
		return 0, 0, fmt.Errorf("bad kmer size %q in %s", fields[0], dir)
	}

	minScore := DefaultMinScore
	if len(fields) > 1 {
		minScore, err = strconv.Atoi(fields[1])
		if err != nil {
			return 0, 0, fmt.Errorf("bad min score %q in %s", fields[1], dir)
		}
	}

	return k, minScore, nil
}

// ReadNames reads a two-column genomeID<TAB>name table, the
// complete.genomes format. Malformed lines are logged and skipped.
func ReadNames(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("no %s file: %v", filepath.Base(path), err)
	}
	defer f.Close()

	names := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			logger.Warn("Skipping malformed genome-name line", zap.String("line", line))
			continue
		}
		names[parts[0]] = parts[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return names, nil
}

func findMarkerFasta(dir string) (string, error) {
	canonical := filepath.Join(dir, MarkerFileName)
	if util.FileExists(canonical) {
		return canonical, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.fasta"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("%w: no marker FASTA in %s", ErrMalformedDirectory, dir)
	}
	sort.Strings(matches)
	return matches[0], nil
}

func (db *DB) insertFromFasta(path string, names map[string]string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sc := seqio.NewScanner(fasta.NewReader(f, linear.NewSeq("", nil, alphabet.Protein)))
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		genomeID := ParseGenomeID(s.ID, s.Desc)

		name, ok := names[genomeID]
		if !ok {
			logger.Warn("Genome missing from name table", zap.String("genome_id", genomeID))
			name = "<unknown>"
		}

		if err := db.Insert(genomeID, name, s.Seq.String()); err != nil {
			logger.Warn("Skipping marker record", zap.String("id", s.ID), zap.Error(err))
		}
	}
	if err := sc.Error(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	return nil
}

func (db *DB) readList(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != 3 {
			logger.Warn("Skipping malformed connect line", zap.String("line", line))
			continue
		}
		score, err := strconv.Atoi(parts[2])
		if err != nil {
			logger.Warn("Skipping connect line with bad score", zap.String("line", line))
			continue
		}
		if err := db.Connect(parts[0], parts[1], score); err != nil {
			logger.Warn("Skipping connect line", zap.String("rep_id", parts[0]), zap.Error(err))
		}
	}
	return scanner.Err()
}

// ReadQueries reads a FASTA stream of query markers. Record IDs go
// through the same genome-ID extraction as directory loads.
func ReadQueries(r io.Reader) ([]QuerySeq, error) {
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.Protein)))
	var out []QuerySeq
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		out = append(out, QuerySeq{GenomeID: ParseGenomeID(s.ID, s.Desc), Protein: s.Seq.String()})
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("reading query FASTA: %w", err)
	}
	return out, nil
}

// ParseGenomeID extracts the genome ID from a FASTA record. The ID field
// is either a bare genome ID or a feature ID of the <genome>.peg.N form,
// with or without the fig| prefix; only when neither carries a genome ID
// does the comment field get consulted.
func ParseGenomeID(id, comment string) string {
	if genomeIDPattern.MatchString(id) {
		return id
	}
	if m := featureIDPattern.FindStringSubmatch(id); m != nil {
		return m[1]
	}
	if fields := strings.Fields(comment); len(fields) > 0 && genomeIDPattern.MatchString(fields[0]) {
		return fields[0]
	}
	return id
}

// Save writes the three required files. Output order is insertion
// order, so saving an unchanged set twice produces identical bytes.
// Connect lists are only written by SaveList, on request.
func (db *DB) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	parms := fmt.Sprintf("%d\n%d\n", db.K, db.MinScore)
	if err := os.WriteFile(filepath.Join(dir, ParmsFileName), []byte(parms), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", ParmsFileName, err)
	}

	if err := db.writeGenomeNames(filepath.Join(dir, GenomesFileName)); err != nil {
		return err
	}

	return db.writeFasta(filepath.Join(dir, MarkerFileName))
}

func (db *DB) writeGenomeNames(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", GenomesFileName, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, g := range db.order {
		fmt.Fprintf(w, "%s\t%s\n", g.GenomeID, g.Name)
	}
	return w.Flush()
}

func (db *DB) writeFasta(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", MarkerFileName, err)
	}
	defer f.Close()

	w := fasta.NewWriter(f, 60)
	for _, g := range db.order {
		s := linear.NewSeq(g.GenomeID, alphabet.BytesToLetters([]byte(g.Protein)), alphabet.Protein)
		s.Desc = g.Name
		if _, err := w.Write(s); err != nil {
			return fmt.Errorf("writing marker for %s: %w", g.GenomeID, err)
		}
	}
	return nil
}

// SaveList writes the connect lists to rep_db.tbl in the directory.
func (db *DB) SaveList(dir string) error {
	f, err := os.Create(filepath.Join(dir, ListFileName))
	if err != nil {
		return fmt.Errorf("writing %s: %w", ListFileName, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, g := range db.order {
		for _, r := range g.represented {
			fmt.Fprintf(w, "%s\t%s\t%d\n", g.GenomeID, r.GenomeID, r.Score)
		}
	}
	return w.Flush()
}
