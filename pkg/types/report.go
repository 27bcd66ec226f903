package types

// StageReport は、1ステージ分の成功IDとスキップ一覧を集約します。
type StageReport struct {
	Stage     string
	Succeeded []string
	Skipped   []*SkipError
}

// Add は ItemResult を成功またはスキップとして振り分けます。
// SkipError 以外のエラーは Kind を持たないため network として扱います。
func (s *StageReport) Add(r ItemResult) {
	if r.OK() {
		s.Succeeded = append(s.Succeeded, r.ID)
		return
	}
	if se, ok := AsSkip(r.Err); ok {
		s.Skipped = append(s.Skipped, se)
		return
	}
	s.Skipped = append(s.Skipped, Skip(SkipNetwork, r.ID, r.Err))
}

// AddAll は複数の ItemResult をまとめて追加します。
func (s *StageReport) AddAll(results []ItemResult) {
	for _, r := range results {
		s.Add(r)
	}
}

// Report は、パイプライン1回分の実行結果です。
type Report struct {
	RunID  string
	Stages []*StageReport
}

// Stage は指定名のステージレポートを返します。存在しなければ追加します。
func (r *Report) Stage(name string) *StageReport {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s
		}
	}
	s := &StageReport{Stage: name}
	r.Stages = append(r.Stages, s)
	return s
}

// SkipCount は全ステージのスキップ件数の合計です。
func (r *Report) SkipCount() int {
	n := 0
	for _, s := range r.Stages {
		n += len(s.Skipped)
	}
	return n
}
