package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/shouni/go-keiba-exact/pkg/types"
)

func TestRecorder(t *testing.T) {
	Convey("Given a new recorder", t, func() {
		r := New()

		Convey("When pages, skips and rows are recorded", func() {
			r.Page("race", SourceFetched)
			r.Page("race", SourceCached)
			r.Page("race", SourceCached)

			rep := &types.StageReport{Stage: "race_results"}
			rep.Add(types.ItemResult{ID: "202401010101"})
			rep.Add(types.ItemResult{ID: "202401010102", Err: types.Skip(types.SkipNoTable, "202401010102", nil)})
			rep.Add(types.ItemResult{ID: "202401010103", Err: errors.New("timeout")})
			r.Report(rep)

			r.RowsWritten("features.csv", 16)
			r.RowsWritten("features.csv", 2)
			r.StageDuration("features", 1500*time.Millisecond)

			Convey("Then the counters reflect them", func() {
				So(testutil.ToFloat64(r.pages.WithLabelValues("race", SourceCached)), ShouldEqual, 2)
				So(testutil.ToFloat64(r.pages.WithLabelValues("race", SourceFetched)), ShouldEqual, 1)
				So(testutil.ToFloat64(r.skipped.WithLabelValues("race_results", string(types.SkipNoTable))), ShouldEqual, 1)
				So(testutil.ToFloat64(r.skipped.WithLabelValues("race_results", string(types.SkipNetwork))), ShouldEqual, 1)
				So(testutil.ToFloat64(r.rows.WithLabelValues("features.csv")), ShouldEqual, 18)
				So(testutil.ToFloat64(r.duration.WithLabelValues("features")), ShouldEqual, 1.5)
			})

			Convey("Then the textfile is written", func() {
				path := filepath.Join(t.TempDir(), "metrics", "keiba.prom")
				So(r.WriteTextfile(path), ShouldBeNil)

				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, `keiba_pages_total{kind="race",source="cached"} 2`)
				So(string(data), ShouldContainSubstring, "keiba_last_run_timestamp_seconds")
			})
		})
	})
}
