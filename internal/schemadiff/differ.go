// Package schemadiff computes the table- and column-level diff between a
// source and target schema: which tables are unchanged, renamed,
// added, or removed, and within each matched table pair which columns carry
// data forward, which were renamed, which are new, and which are dropped.
package schemadiff

import (
	"sort"
	"strings"

	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// Diff computes the full table diff between src and tgt. Matched entries are
// sorted by target name.
func Diff(src, tgt *sqlast.SqlFile) SchemaDiff {
	var sourceOnly, targetOnly []string
	var unchanged []string

	srcSeen := map[string]bool{}
	for _, name := range src.TableOrder {
		srcSeen[strings.ToLower(name)] = true
	}
	tgtSeen := map[string]bool{}
	for _, name := range tgt.TableOrder {
		tgtSeen[strings.ToLower(name)] = true
	}

	for _, name := range src.TableOrder {
		if tgtSeen[strings.ToLower(name)] {
			unchanged = append(unchanged, name)
		} else {
			sourceOnly = append(sourceOnly, name)
		}
	}
	for _, name := range tgt.TableOrder {
		if !srcSeen[strings.ToLower(name)] {
			targetOnly = append(targetOnly, name)
		}
	}

	exactRenames, sourceOnly, targetOnly := detectExactSignatureRenames(src, tgt, sourceOnly, targetOnly)
	heuristicRenames, sourceOnly, targetOnly := detectRenames(src, tgt, sourceOnly, targetOnly)

	matches := make([]TableMatch, 0, len(unchanged)+len(exactRenames)+len(heuristicRenames))
	for _, name := range unchanged {
		matches = append(matches, TableMatch{SourceName: name, TargetName: name})
	}
	for s, t := range exactRenames {
		matches = append(matches, TableMatch{SourceName: s, TargetName: t, Renamed: true})
	}
	for s, t := range heuristicRenames {
		matches = append(matches, TableMatch{SourceName: s, TargetName: t, Renamed: true})
	}
	sort.Slice(matches, func(i, j int) bool {
		return strings.ToLower(matches[i].TargetName) < strings.ToLower(matches[j].TargetName)
	})

	diff := SchemaDiff{Added: targetOnly, Removed: sourceOnly}
	for _, m := range matches {
		srcTable := src.Tables[m.SourceName]
		tgtTable := tgt.Tables[m.TargetName]
		cols, dropped := diffColumns(&srcTable, &tgtTable)
		diff.Matched = append(diff.Matched, TableDiff{TableMatch: m, Columns: cols, Dropped: dropped})
	}
	return diff
}

// detectExactSignatureRenames groups source-only and target-only tables by
// TableSignature; a signature shared by exactly one table on each side is a
// confident rename, resolved before the heuristic scoring pass runs.
func detectExactSignatureRenames(src, tgt *sqlast.SqlFile, sourceOnly, targetOnly []string) (renames map[string]string, remainingSource, remainingTarget []string) {
	srcBySig := map[string][]string{}
	for _, name := range sourceOnly {
		t := src.Tables[name]
		key := signatureKey(t.Signature())
		srcBySig[key] = append(srcBySig[key], name)
	}
	tgtBySig := map[string][]string{}
	for _, name := range targetOnly {
		t := tgt.Tables[name]
		key := signatureKey(t.Signature())
		tgtBySig[key] = append(tgtBySig[key], name)
	}

	renames = map[string]string{}
	bound := map[string]bool{}
	for sig, srcNames := range srcBySig {
		if len(srcNames) != 1 {
			continue
		}
		tgtNames, ok := tgtBySig[sig]
		if !ok || len(tgtNames) != 1 {
			continue
		}
		renames[srcNames[0]] = tgtNames[0]
		bound[strings.ToLower(srcNames[0])] = true
		bound[strings.ToLower(tgtNames[0])] = true
	}

	for _, name := range sourceOnly {
		if !bound[strings.ToLower(name)] {
			remainingSource = append(remainingSource, name)
		}
	}
	for _, name := range targetOnly {
		if !bound[strings.ToLower(name)] {
			remainingTarget = append(remainingTarget, name)
		}
	}
	return renames, remainingSource, remainingTarget
}

// signatureKey renders a TableSignature as a comparable string so it can be
// used to group tables by exact structural match (slices make the struct
// itself unusable as a map key).
func signatureKey(sig sqlast.TableSignature) string {
	var b strings.Builder
	for _, c := range sig.Columns {
		b.WriteString(c.Type.String())
		if c.Nullable {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
		if c.PrimaryKey {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
		if c.HasFK {
			b.WriteByte('1')
			b.WriteString(c.FKTable)
		} else {
			b.WriteByte('0')
		}
		b.WriteByte(';')
	}
	b.WriteByte('#')
	for i := 0; i < sig.PKColumns; i++ {
		b.WriteByte('p')
	}
	b.WriteByte('#')
	for _, t := range sig.FKTargets {
		b.WriteString(t)
		b.WriteByte(';')
	}
	return b.String()
}

// diffColumns matches every target column to a source column (or marks it
// added) following the four-case column diff, then reports every
// unconsumed source column as dropped.
func diffColumns(src, tgt *sqlast.CreateTable) (matches []ColumnMatch, dropped []string) {
	consumed := map[string]bool{}

	for _, tc := range tgt.Columns {
		// Case 1: exact name match.
		if sc, ok := src.Column(tc.Name); ok && !consumed[strings.ToLower(sc.Name)] {
			consumed[strings.ToLower(sc.Name)] = true
			matches = append(matches, ColumnMatch{TargetColumn: tc.Name, SourceColumn: sc.Name})
			continue
		}

		// Cases 2/3: unconsumed columns with a compatible signature.
		var candidates []sqlast.ColumnDef
		for _, sc := range src.Columns {
			if consumed[strings.ToLower(sc.Name)] {
				continue
			}
			if sc.Signature().Equal(tc.Signature()) {
				candidates = append(candidates, sc)
			}
		}

		switch len(candidates) {
		case 0:
			matches = append(matches, ColumnMatch{TargetColumn: tc.Name, Added: true})
		case 1:
			consumed[strings.ToLower(candidates[0].Name)] = true
			matches = append(matches, ColumnMatch{
				TargetColumn: tc.Name,
				SourceColumn: candidates[0].Name,
				Renamed:      !strings.EqualFold(candidates[0].Name, tc.Name),
			})
		default:
			best, ok := bestBySimilarity(tc.Name, candidates)
			if ok {
				consumed[strings.ToLower(best.Name)] = true
				matches = append(matches, ColumnMatch{
					TargetColumn: tc.Name,
					SourceColumn: best.Name,
					Renamed:      !strings.EqualFold(best.Name, tc.Name),
				})
			} else {
				matches = append(matches, ColumnMatch{TargetColumn: tc.Name, Added: true})
			}
		}
	}

	for _, sc := range src.Columns {
		if !consumed[strings.ToLower(sc.Name)] {
			dropped = append(dropped, sc.Name)
		}
	}
	return matches, dropped
}

// bestBySimilarity picks the candidate whose name most resembles target,
// requiring the winner to strictly beat the runner-up; a tie for first
// place means no confident choice exists.
func bestBySimilarity(target string, candidates []sqlast.ColumnDef) (sqlast.ColumnDef, bool) {
	type scored struct {
		col   sqlast.ColumnDef
		score int
	}
	scoredList := make([]scored, len(candidates))
	for i, c := range candidates {
		scoredList[i] = scored{col: c, score: nameSimilarity(target, c.Name)}
	}
	sort.SliceStable(scoredList, func(i, j int) bool { return scoredList[i].score > scoredList[j].score })
	if len(scoredList) == 1 || scoredList[0].score > scoredList[1].score {
		return scoredList[0].col, true
	}
	return sqlast.ColumnDef{}, false
}
