package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SEEDtk/kernel-sub003/logger"
	"github.com/SEEDtk/kernel-sub003/pkg/repdb"
	"github.com/SEEDtk/kernel-sub003/pkg/report"
)

func rolesCommand() *cobra.Command {
	var (
		dir        string
		countsFile string
		output     string
		minPercent float64
		minSize    int
	)
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Derive the core roles of each represented group",
		Long: `Roles reads a genomeID<TAB>role[<TAB>count] table covering the members
of the directory's represented groups and reports, per representative,
the roles present in at least --min-percent of the group's members.
Groups smaller than --min-size are skipped outright; small groups give
unreliable core-role estimates.

The directory needs connect lists (rep_db.tbl); run groups or update
first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoles(repDir(dir), countsFile, output, minPercent, minSize)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Rep-genome directory (default $REPDB_DATA or ./data)")
	cmd.Flags().StringVarP(&countsFile, "counts", "c", "", "Role-count table: genomeID<TAB>role[<TAB>count]")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output table (default stdout)")
	cmd.Flags().Float64Var(&minPercent, "min-percent", 80, "Percent of members a core role must appear in")
	cmd.Flags().IntVar(&minSize, "min-size", repdb.MinRoleGroupSize, "Smallest group worth deriving roles for")
	cmd.Flags().SortFlags = false
	cmd.MarkFlagRequired("counts")
	return cmd
}

func runRoles(dir, countsFile, output string, minPercent float64, minSize int) error {
	db, err := loadRepDir(dir, false)
	if err != nil {
		return err
	}

	f, err := os.Open(countsFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", countsFile, err)
	}
	defer f.Close()
	counts, err := repdb.ReadRoleCounts(f)
	if err != nil {
		return err
	}

	var sets []report.RoleSet
	for _, g := range db.Reps() {
		list, err := db.RepresentedList(g.GenomeID)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			continue
		}
		grp := &repdb.Group{RepID: g.GenomeID, Scores: make(map[string]int, len(list))}
		for _, r := range list {
			grp.Scores[r.GenomeID] = r.Score
		}
		core := repdb.CommonRoles(grp, counts, minPercent, minSize)
		if core == nil {
			logger.Debug("Group below size floor, skipped",
				zap.String("rep_id", g.GenomeID), zap.Int("size", grp.Size()))
			continue
		}
		roles := make([]string, 0, len(core))
		for role := range core {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		sets = append(sets, report.RoleSet{RepID: g.GenomeID, Roles: roles})
	}
	if len(sets) == 0 {
		logger.Warn("No group cleared the size floor", zap.Int("min_size", minSize))
	}

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()
	return report.WriteRoles(out, sets)
}
