package types

// 出力TSVのカラム名
const (
	ColRaceID      = "race_id"
	ColHorseID     = "horse_id"
	ColJockeyID    = "jockey_id"
	ColTrainerID   = "trainer_id"
	ColOwnerID     = "owner_id"
	ColRank        = "rank"
	ColWakuban     = "wakuban"
	ColUmaban      = "umaban"
	ColSex         = "sex"
	ColAge         = "age"
	ColWeight      = "weight"
	ColWeightDiff  = "weight_diff"
	ColTansyo      = "tansyo"
	ColPopularity  = "popularity"
	ColImpost      = "impost"
	ColDate        = "date"
	ColWeather     = "weather"
	ColRaceType    = "race_type"
	ColAround      = "around"
	ColCourseLen   = "course_len"
	ColGroundState = "ground_state"
	ColRankDiff    = "rank_diff"
	ColPrize       = "prize"
	ColRaceClass   = "race_class"
	ColPlace       = "place"
	ColNHorses     = "n_horses"
	ColTitle       = "title"
	ColInfo1       = "info1"
	ColInfo2       = "info2"
)

// ResultColumns は前処理済みレース結果の出力カラムです。
var ResultColumns = []string{
	ColRaceID, ColHorseID, ColJockeyID, ColTrainerID, ColOwnerID,
	ColRank, ColWakuban, ColUmaban, ColSex, ColAge,
	ColWeight, ColWeightDiff, ColTansyo, ColPopularity, ColImpost,
}

// HistoryColumns は前処理済み馬成績の出力カラムです。
var HistoryColumns = []string{
	ColHorseID, ColDate, ColRank, ColPrize, ColRankDiff,
	ColWeather, ColRaceType, ColCourseLen, ColGroundState, ColRaceClass, ColNHorses,
}

// RaceColumns は前処理済みレース情報の出力カラムです。
var RaceColumns = []string{
	ColRaceID, ColDate, ColRaceType, ColAround, ColCourseLen,
	ColWeather, ColGroundState, ColRaceClass, ColPlace,
}

// RaceInfoColumns はレース情報(未加工)の出力カラムです。
var RaceInfoColumns = []string{ColRaceID, ColTitle, ColInfo1, ColInfo2}
