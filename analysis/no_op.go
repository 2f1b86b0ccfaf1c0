package analysis

import "github.com/drivesim/carla-rl-env/core"

// NoOpAnalyzer records nothing. Useful to run experiments purely for
// their measurement logs.
type NoOpAnalyzer struct{}

var _ core.Analyzer = &NoOpAnalyzer{}

func (a *NoOpAnalyzer) Analyze(*core.EpisodeContext, *core.Trace) {
}

func (a *NoOpAnalyzer) DataSet() core.DataSet {
	return nil
}

func (a *NoOpAnalyzer) Reset() {
}

type NoOpAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &NoOpAnalyzerConstructor{}

func (c *NoOpAnalyzerConstructor) NewAnalyzer(_ int) core.Analyzer {
	return &NoOpAnalyzer{}
}

type NoOpComparator struct{}

var _ core.Comparator = &NoOpComparator{}

func (c *NoOpComparator) Compare([]string, []core.DataSet) {
}

type NoOpComparatorConstructor struct{}

var _ core.ComparatorConstructor = &NoOpComparatorConstructor{}

func (c *NoOpComparatorConstructor) NewComparator(_ int) core.Comparator {
	return &NoOpComparator{}
}
