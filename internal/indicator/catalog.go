package indicator

import (
	"fmt"
	"strings"

	"github.com/skalibog/indcalc/pkg/models"
)

// Канонические имена индикаторов
const (
	SMA    = "SMA"
	EMA    = "EMA"
	WMA    = "WMA"
	DEMA   = "DEMA"
	TEMA   = "TEMA"
	MACD   = "MACD"
	RSI    = "RSI"
	BBANDS = "BBANDS"
	ATR    = "ATR"
	NATR   = "NATR"
	STOCH  = "STOCH"
	STOCHF = "STOCHF"
	KDJ    = "KDJ"
	OBV    = "OBV"
	CCI    = "CCI"
	ROC    = "ROC"
	MOM    = "MOM"
	WILLR  = "WILLR"
	ADX    = "ADX"
	MFI    = "MFI"
)

// Имена выходных серий многовыходных индикаторов
const (
	OutMACD       = "macd"
	OutMACDSignal = "macdsignal"
	OutMACDHist   = "macdhist"
	OutUpperBand  = "upperband"
	OutMiddleBand = "middleband"
	OutLowerBand  = "lowerband"
	OutSlowK      = "slowk"
	OutSlowD      = "slowd"
	OutJ          = "j"
	OutFastK      = "fastk"
	OutFastD      = "fastd"
)

var known = map[string]struct{}{
	SMA: {}, EMA: {}, WMA: {}, DEMA: {}, TEMA: {}, MACD: {}, RSI: {}, BBANDS: {}, ATR: {}, NATR: {},
	STOCH: {}, STOCHF: {}, KDJ: {}, OBV: {}, CCI: {}, ROC: {}, MOM: {}, WILLR: {}, ADX: {}, MFI: {},
}

var nameAliases = map[string]string{
	"BOLL":       BBANDS,
	"BOLLINGER":  BBANDS,
	"STOCHASTIC": STOCH,
	"MOMENTUM":   MOM,
}

// outputsByFamily фиксированный порядок выходов для позиционной распаковки
var outputsByFamily = map[string][]string{
	MACD:   {OutMACD, OutMACDSignal, OutMACDHist},
	BBANDS: {OutUpperBand, OutMiddleBand, OutLowerBand},
	STOCH:  {OutSlowK, OutSlowD},
	KDJ:    {OutSlowK, OutSlowD, OutJ},
	STOCHF: {OutFastK, OutFastD},
}

// shortAliases дополнительные короткие имена выходов
var shortAliases = map[string]map[string]string{
	BBANDS: {OutUpperBand: "upper", OutMiddleBand: "middle", OutLowerBand: "lower"},
}

var (
	hlc  = []string{models.ColumnHigh, models.ColumnLow, models.ColumnClose}
	hlcv = []string{models.ColumnHigh, models.ColumnLow, models.ColumnClose, models.ColumnVolume}
)

var requiredColumns = map[string][]string{
	ATR:    hlc,
	NATR:   hlc,
	STOCH:  hlc,
	STOCHF: hlc,
	KDJ:    hlc,
	CCI:    hlc,
	WILLR:  hlc,
	ADX:    hlc,
	OBV:    {models.ColumnClose, models.ColumnVolume},
	MFI:    hlcv,
}

var defaultPeriods = map[string]int{
	SMA: 20, EMA: 20, WMA: 20, DEMA: 20, TEMA: 20, BBANDS: 20, CCI: 20,
	RSI: 14, ATR: 14, NATR: 14, WILLR: 14, ADX: 14, MFI: 14,
	ROC: 10, MOM: 10,
}

// CanonicalName приводит имя индикатора к каноническому виду
func CanonicalName(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	if alias, ok := nameAliases[n]; ok {
		return alias
	}
	return n
}

// Known сообщает, есть ли индикатор в каталоге
func Known(name string) bool {
	_, ok := known[CanonicalName(name)]
	return ok
}

// Outputs возвращает имена выходных серий индикатора в каноническом порядке
func Outputs(name string) []string {
	if outs, ok := outputsByFamily[name]; ok {
		return outs
	}
	return []string{strings.ToLower(name)}
}

// RequiredColumns возвращает колонки, без которых индикатор не посчитать
func RequiredColumns(name string) []string {
	if cols, ok := requiredColumns[name]; ok {
		return cols
	}
	return []string{models.ColumnClose}
}

// DefaultPeriod возвращает период по умолчанию
func DefaultPeriod(name string) int {
	if p, ok := defaultPeriods[name]; ok {
		return p
	}
	return 14
}

// ValidateColumns проверяет наличие колонок, нужных индикатору
func ValidateColumns(name string, data *models.Table) error {
	if data.Len() == 0 {
		return fmt.Errorf("%w: пустая таблица", ErrInsufficientData)
	}
	for _, col := range RequiredColumns(name) {
		if !data.Has(col) {
			return fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return nil
}
