// Grouping of query genomes under their representatives.

package repdb

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/SEEDtk/kernel-sub003/logger"
	"go.uber.org/zap"
)

// Groups smaller than this produce unreliable core-role estimates and
// are skipped by CommonRoles.
const MinRoleGroupSize = 100

// QuerySeq is one incoming genome: its ID and marker protein.
type QuerySeq struct {
	GenomeID string
	Protein  string
}

// Group collects the genomes represented by one representative, with
// the score each one reached.
type Group struct {
	RepID  string
	Scores map[string]int
}

// Size returns the number of member genomes.
func (g *Group) Size() int {
	return len(g.Scores)
}

// Members returns the member genome IDs sorted for stable output.
func (g *Group) Members() []string {
	out := make([]string, 0, len(g.Scores))
	for id := range g.Scores {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// BuildGroups partitions the queries into represented groups. A query
// joins the group of every representative it scores >= minScore
// against, so one genome can land in several groups near a threshold
// boundary. Queries whose marker yields no k-mers, whether too short
// or all ambiguity codes, are logged and skipped, never fatal.
func BuildGroups(db *DB, queries []QuerySeq, minScore int) map[string]*Group {
	groups := make(map[string]*Group)

	for _, q := range queries {
		qs := db.extract(q.Protein)
		if len(qs) == 0 {
			logger.Warn("Query marker yields no k-mers, skipped",
				zap.String("genome_id", q.GenomeID),
				zap.Int("length", len(q.Protein)), zap.Int("K", db.K))
			continue
		}
		for repID, score := range db.matchesAboveSet(qs, minScore) {
			grp, ok := groups[repID]
			if !ok {
				grp = &Group{RepID: repID, Scores: make(map[string]int)}
				groups[repID] = grp
			}
			grp.Scores[q.GenomeID] = score
		}
	}

	return groups
}

// ReadRoleCounts reads a genomeID<TAB>role[<TAB>count] table into the
// shape CommonRoles wants. A missing count column means one occurrence;
// repeated (genome, role) lines accumulate. Malformed lines are logged
// and skipped.
func ReadRoleCounts(r io.Reader) (map[string]map[string]int, error) {
	counts := make(map[string]map[string]int)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			logger.Warn("Skipping malformed role-count line", zap.String("line", line))
			continue
		}
		n := 1
		if len(parts) > 2 {
			v, err := strconv.Atoi(parts[2])
			if err != nil {
				logger.Warn("Skipping role-count line with bad count",
					zap.String("line", line), zap.String("count", parts[2]))
				continue
			}
			n = v
		}
		genome, role := parts[0], parts[1]
		if counts[genome] == nil {
			counts[genome] = make(map[string]int)
		}
		counts[genome][role] += n
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading role counts: %w", err)
	}
	return counts, nil
}

// CommonRoles derives the core roles of a group: the roles present in
// at least minPercent percent of its members (count rounded up).
// roleCounts maps genome ID to per-role occurrence counts. Groups below
// minGroupSize are excluded outright; pass MinRoleGroupSize unless the
// caller has a reason not to.
func CommonRoles(group *Group, roleCounts map[string]map[string]int, minPercent float64, minGroupSize int) map[string]bool {
	n := group.Size()
	if n < minGroupSize {
		return nil
	}

	needed := int(math.Ceil(float64(n) * minPercent / 100))
	if needed < 1 {
		needed = 1
	}

	occurrences := make(map[string]int)
	for member := range group.Scores {
		for role, count := range roleCounts[member] {
			if count > 0 {
				occurrences[role]++
			}
		}
	}

	core := make(map[string]bool)
	for role, seen := range occurrences {
		if seen >= needed {
			core[role] = true
		}
	}
	return core
}
