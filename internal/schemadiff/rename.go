package schemadiff

import (
	"sort"
	"strings"

	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// renameCandidate is a scored potential (source, target) rename pairing
// among the tables present in only one side of the schema.
type renameCandidate struct {
	source        string
	target        string
	copiedColumns int
	nameScore     int
	targetColumns int
}

// detectRenames pairs removed-from-source tables with added-in-target
// tables per the heuristic: column-shape overlap first, table-name
// similarity as a tiebreak. The names not bound to a rename are returned
// as remainingSource and remainingTarget.
func detectRenames(src, tgt *sqlast.SqlFile, sourceOnly, targetOnly []string) (renames map[string]string, remainingSource, remainingTarget []string) {
	var candidates []renameCandidate
	for _, s := range sourceOnly {
		srcTable := src.Tables[s]
		for _, t := range targetOnly {
			tgtTable := tgt.Tables[t]
			copied := copiedColumnCount(&srcTable, &tgtTable)
			score := nameSimilarity(s, t)
			srcN := len(srcTable.Columns)
			tgtN := len(tgtTable.Columns)
			minN := srcN
			if tgtN < minN {
				minN = tgtN
			}
			accepted := (copied > 0 && copied >= minN) || (score > 0 && copied*2 >= tgtN)
			if !accepted {
				continue
			}
			candidates = append(candidates, renameCandidate{
				source:        s,
				target:        t,
				copiedColumns: copied,
				nameScore:     score,
				targetColumns: tgtN,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.copiedColumns != b.copiedColumns {
			return a.copiedColumns > b.copiedColumns
		}
		if a.nameScore != b.nameScore {
			return a.nameScore > b.nameScore
		}
		return a.targetColumns < b.targetColumns
	})

	boundSource := map[string]bool{}
	boundTarget := map[string]bool{}
	renames = map[string]string{}
	for _, c := range candidates {
		sk, tk := strings.ToLower(c.source), strings.ToLower(c.target)
		if boundSource[sk] || boundTarget[tk] {
			continue
		}
		boundSource[sk] = true
		boundTarget[tk] = true
		renames[c.source] = c.target
	}

	for _, s := range sourceOnly {
		if !boundSource[strings.ToLower(s)] {
			remainingSource = append(remainingSource, s)
		}
	}
	for _, t := range targetOnly {
		if !boundTarget[strings.ToLower(t)] {
			remainingTarget = append(remainingTarget, t)
		}
	}
	return renames, remainingSource, remainingTarget
}

// copiedColumnCount counts target columns that share a name with a source
// column whose type, primary-key-ness, and FK-ness are identical — the
// number of columns a rename would carry over unchanged.
func copiedColumnCount(src, tgt *sqlast.CreateTable) int {
	n := 0
	for _, tc := range tgt.Columns {
		sc, ok := src.Column(tc.Name)
		if !ok {
			continue
		}
		if columnShapeEqual(sc, tc) {
			n++
		}
	}
	return n
}

func columnShapeEqual(a, b sqlast.ColumnDef) bool {
	_, aHasFK := a.ForeignKey()
	_, bHasFK := b.ForeignKey()
	return a.ColumnType == b.ColumnType &&
		a.IsPrimaryKey() == b.IsPrimaryKey() &&
		aHasFK == bHasFK
}

// nameSimilarity scores how alike two table names are: three points per
// shared underscore-separated token, a flat bonus for exact equality, and a
// smaller bonus when one name's token list is a trailing subsequence of the
// other's (e.g. "legacy_account" -> "account").
func nameSimilarity(a, b string) int {
	ta, tb := nameTokens(a), nameTokens(b)
	score := tokenIntersection(ta, tb) * 3
	if strings.EqualFold(a, b) {
		score += 20
	}
	if tokenSuffixOf(ta, tb) || tokenSuffixOf(tb, ta) {
		score += 4
	}
	return score
}

func nameTokens(s string) []string {
	parts := strings.Split(strings.ToLower(s), "_")
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func tokenIntersection(a, b []string) int {
	set := map[string]bool{}
	for _, t := range a {
		set[t] = true
	}
	n := 0
	seen := map[string]bool{}
	for _, t := range b {
		if set[t] && !seen[t] {
			seen[t] = true
			n++
		}
	}
	return n
}

// tokenSuffixOf reports whether short is a trailing subsequence of long's
// tokens.
func tokenSuffixOf(short, long []string) bool {
	if len(short) == 0 || len(short) >= len(long) {
		return false
	}
	offset := len(long) - len(short)
	for i, t := range short {
		if long[offset+i] != t {
			return false
		}
	}
	return true
}
