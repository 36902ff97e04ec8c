package support

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/dscurate/internal/quarantine"
	"github.com/MeKo-Tech/dscurate/internal/testutil"
)

const validLabel = "0 0.500000 0.500000 0.200000 0.100000\n"

func (testCtx *TestContext) writeFile(rel, content string) error {
	path := testCtx.DatasetPath(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

func (testCtx *TestContext) saveImage(rel string, seed uint64, blur float64) error {
	path := testCtx.DatasetPath(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	cfg := testutil.DefaultPlateImageConfig()
	cfg.Size = testutil.MediumSize
	cfg.Seed = seed
	img := testutil.GeneratePlateImage(cfg)
	if blur > 0 {
		return imaging.Save(imaging.Blur(img, blur), path, imaging.JPEGQuality(95))
	}
	return imaging.Save(img, path, imaging.JPEGQuality(95))
}

func (testCtx *TestContext) anEmptyDataset() error {
	for _, split := range []string{"train", "valid", "test"} {
		for _, sub := range []string{"images", "labels"} {
			if err := os.MkdirAll(testCtx.DatasetPath(split+"/"+sub), 0o750); err != nil {
				return err
			}
		}
	}
	return nil
}

// splitSeed gives each split its own range of fixture seeds so images in
// different splits never coincide.
func splitSeed(split string) uint64 {
	switch split {
	case "train":
		return 1000
	case "valid":
		return 2000
	case "test":
		return 3000
	}
	return 4000
}

func (testCtx *TestContext) sharpImagesIn(n int, split string) error {
	for i := range n {
		name := fmt.Sprintf("%s_%03d", split, i)
		seed := splitSeed(split) + uint64(i) + 1
		if err := testCtx.saveImage(split+"/images/"+name+".jpg", seed, 0); err != nil {
			return err
		}
		if err := testCtx.writeFile(split+"/labels/"+name+".txt", validLabel); err != nil {
			return err
		}
	}
	return nil
}

func (testCtx *TestContext) aBlurryImage(rel string) error {
	if err := testCtx.saveImage(rel, 99, 12); err != nil {
		return err
	}
	return testCtx.writeFile(labelFor(rel), validLabel)
}

func (testCtx *TestContext) aLabelContaining(rel, content string) error {
	return testCtx.writeFile(rel, strings.ReplaceAll(content, `\n`, "\n"))
}

func (testCtx *TestContext) theFileIsCopiedTo(src, dst string) error {
	for _, pair := range [][2]string{{src, dst}, {labelFor(src), labelFor(dst)}} {
		in, err := os.Open(testCtx.DatasetPath(pair[0]))
		if err != nil {
			if os.IsNotExist(err) && pair[0] != src {
				continue
			}
			return err
		}
		if err := os.MkdirAll(filepath.Dir(testCtx.DatasetPath(pair[1])), 0o750); err != nil {
			_ = in.Close()
			return err
		}
		out, err := os.Create(testCtx.DatasetPath(pair[1]))
		if err != nil {
			_ = in.Close()
			return err
		}
		_, err = io.Copy(out, in)
		_ = in.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (testCtx *TestContext) theDatasetRootIsMissing() error {
	testCtx.DatasetRoot = filepath.Join(testCtx.TempDir, "missing")
	return nil
}

func (testCtx *TestContext) theFileShouldExist(rel string) error {
	if !testutil.FileExists(testCtx.DatasetPath(rel)) {
		return fmt.Errorf("expected %s to exist", rel)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldNotExist(rel string) error {
	if testutil.FileExists(testCtx.DatasetPath(rel)) {
		return fmt.Errorf("expected %s to be gone", rel)
	}
	return nil
}

func (testCtx *TestContext) readMoveLog() ([]quarantine.Decision, error) {
	return quarantine.ReadLog(testCtx.DatasetPath("audit_out/" + quarantine.LogFile))
}

func (testCtx *TestContext) theMoveLogShouldHaveRows(n int) error {
	rows, err := testCtx.readMoveLog()
	if err != nil {
		return err
	}
	if len(rows) != n {
		return fmt.Errorf("move log has %d rows, want %d: %+v", len(rows), n, rows)
	}
	return nil
}

func (testCtx *TestContext) theMoveLogShouldRecord(reason, action string) error {
	rows, err := testCtx.readMoveLog()
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.Reason == reason && string(r.Action) == action {
			return nil
		}
	}
	return fmt.Errorf("no %s row with reason %s in %+v", action, reason, rows)
}

// labelFor maps split/images/x.ext to split/labels/x.txt.
func labelFor(rel string) string {
	dir, file := filepath.Split(filepath.ToSlash(rel))
	dir = strings.TrimSuffix(dir, "images/") + "labels/"
	return dir + strings.TrimSuffix(file, filepath.Ext(file)) + ".txt"
}

// RegisterDatasetSteps registers fixture and filesystem assertion steps.
func (testCtx *TestContext) RegisterDatasetSteps(sc *godog.ScenarioContext) {
	sc.Step(`^an empty dataset$`, testCtx.anEmptyDataset)
	sc.Step(`^(\d+) sharp labelled images? in "([^"]*)"$`, testCtx.sharpImagesIn)
	sc.Step(`^a blurry labelled image "([^"]*)"$`, testCtx.aBlurryImage)
	sc.Step(`^a label "([^"]*)" containing "([^"]*)"$`, testCtx.aLabelContaining)
	sc.Step(`^the image "([^"]*)" is copied to "([^"]*)"$`, testCtx.theFileIsCopiedTo)
	sc.Step(`^the dataset root does not exist$`, testCtx.theDatasetRootIsMissing)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should not exist$`, testCtx.theFileShouldNotExist)
	sc.Step(`^the move log should have (\d+) rows?$`, testCtx.theMoveLogShouldHaveRows)
	sc.Step(`^the move log should record "([^"]*)" as "([^"]*)"$`, testCtx.theMoveLogShouldRecord)
}
