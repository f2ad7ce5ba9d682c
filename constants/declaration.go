package constants

// Placeholders written in place of fields no extraction rule resolved.
const (
	UnconfirmedDeclaration = "미확인"
	UnconfirmedLineIndex   = "미확인"
	UnresolvedModel        = "확인불가"
	UnresolvedQuantity     = "확인불가"
	UnresolvedNetWeight    = "란 합산치 참조"
	UnresolvedPrice        = "미확인"
)

const (
	// DefaultTradeCode is assumed when a declaration carries no 거래구분 label.
	DefaultTradeCode = "11"
	// DefaultModelCap bounds the model/spec capture in runes.
	DefaultModelCap = 150
	// DefaultReportName matches the download name brokers already use.
	DefaultReportName = "FOC_Final_Report.xlsx"
)
