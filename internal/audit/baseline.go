package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/dscurate/internal/dataset"
	"github.com/MeKo-Tech/dscurate/internal/labels"
)

// IssueLabelMissing is counted instead of labels.IssueMissing in the
// baseline issue histogram.
const IssueLabelMissing = "label_missing"

// BaselineOptions configures the pre-cleanup audit.
type BaselineOptions struct {
	MinBoxArea float64
	// NC is the class count from data.yaml; classes at or above it are
	// counted as class_out_of_range. Zero disables the check.
	NC         int
	ClassNames []string
	// Source is a free text note about where the data came from.
	Source string
}

// Baseline is the audit of a dataset before cleaning.
type Baseline struct {
	Splits  []SplitCounts
	Issues  map[dataset.Split]map[string]int
	Classes map[dataset.Split]map[int]int

	ClassNames []string
	Source     string
}

// ComputeBaseline counts files, label issues and class occurrences per split.
// The class check never makes a label invalid; it only adds to the histogram.
func ComputeBaseline(l dataset.Layout, opts BaselineOptions) (*Baseline, error) {
	if err := l.CheckRoot(); err != nil {
		return nil, err
	}
	rules := labels.Rules{MinBoxArea: opts.MinBoxArea}

	b := &Baseline{
		Issues:     make(map[dataset.Split]map[string]int),
		Classes:    make(map[dataset.Split]map[int]int),
		ClassNames: opts.ClassNames,
		Source:     opts.Source,
	}
	for _, s := range l.Splits {
		p, err := pairSplit(l, s)
		if err != nil {
			return nil, err
		}
		issues := make(map[string]int)
		classes := make(map[int]int)

		for _, img := range p.images {
			res := labels.Validate(l.LabelFor(s, img), rules)
			if slices.Contains(res.Issues, labels.IssueMissing) {
				issues[IssueLabelMissing]++
			} else {
				for _, is := range res.Issues {
					issues[string(is)]++
				}
			}
			if res.Valid {
				p.counts.LabelsOK++
			} else {
				p.counts.LabelsInvalid++
			}
			for _, c := range res.ClassIDs {
				classes[c]++
				if opts.NC > 0 && (c < 0 || c >= opts.NC) {
					issues[string(labels.IssueClassOutOfRange)]++
				}
			}
		}

		b.Splits = append(b.Splits, p.counts)
		b.Issues[s] = issues
		b.Classes[s] = classes
	}
	return b, nil
}

// ClassIDs returns every class seen in any split, ascending.
func (b *Baseline) ClassIDs() []int {
	seen := make(map[int]bool)
	for _, m := range b.Classes {
		for c := range m {
			seen[c] = true
		}
	}
	ids := make([]int, 0, len(seen))
	for c := range seen {
		ids = append(ids, c)
	}
	slices.Sort(ids)
	return ids
}

// Write stores the four baseline files in dir.
func (b *Baseline) Write(dir string) error {
	if err := WriteCounts(filepath.Join(dir, BaselineCountsFile), b.Splits, len(CountHeader)); err != nil {
		return err
	}

	issueRows := [][]string{{"split", "issue", "conteo"}}
	for _, sc := range b.Splits {
		hist := b.Issues[sc.Split]
		names := make([]string, 0, len(hist))
		for k := range hist {
			names = append(names, k)
		}
		slices.Sort(names)
		for _, k := range names {
			issueRows = append(issueRows, []string{string(sc.Split), k, strconv.Itoa(hist[k])})
		}
	}
	if err := writeCSV(filepath.Join(dir, BaselineIssuesFile), issueRows); err != nil {
		return err
	}

	ids := b.ClassIDs()
	head := []string{"split"}
	for _, c := range ids {
		head = append(head, "class_"+strconv.Itoa(c))
	}
	classRows := [][]string{head}
	for _, sc := range b.Splits {
		row := []string{string(sc.Split)}
		for _, c := range ids {
			row = append(row, strconv.Itoa(b.Classes[sc.Split][c]))
		}
		classRows = append(classRows, row)
	}
	if err := writeCSV(filepath.Join(dir, BaselineClassesFile), classRows); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, BaselineSummaryFile), []byte(b.Summary()), 0o600)
}

// Summary renders the plain text baseline summary.
func (b *Baseline) Summary() string {
	var sb strings.Builder
	sb.WriteString("== Línea de base (antes de limpiar) ==\n")
	fmt.Fprintf(&sb, "Origen del dataset: %s\n\n", b.Source)
	for _, c := range b.Splits {
		fmt.Fprintf(&sb, "%s: imgs=%d  labels=%d  imgs_sin_label=%d  labels_sin_img=%d  labels_ok=%d  labels_invalidos=%d\n",
			c.Split, c.Images, c.Labels, c.ImagesWithoutLabel, c.LabelsWithoutImage, c.LabelsOK, c.LabelsInvalid)
	}
	imgs, lbls := Totals(b.Splits)
	fmt.Fprintf(&sb, "\nTOTAL imágenes: %d  |  TOTAL labels: %d\n", imgs, lbls)
	if len(b.ClassNames) > 0 {
		sb.WriteString("\nClases (data.yaml):\n")
		for i, n := range b.ClassNames {
			fmt.Fprintf(&sb, "  %d: %s\n", i, n)
		}
	}
	return sb.String()
}
