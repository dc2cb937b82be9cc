package cache

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/skalibog/indcalc/internal/indicator"
	"github.com/skalibog/indcalc/pkg/models"
)

// Key ключ кэша: каноническое имя, отпечаток данных и отпечаток параметров
type Key struct {
	Name   string
	Data   uint64
	Params uint64
}

// NewKey строит ключ по уже нормализованным имени и параметрам
func NewKey(name string, data *models.Table, p indicator.Params) Key {
	return Key{
		Name:   name,
		Data:   DataFingerprint(data),
		Params: ParamsFingerprint(p),
	}
}

// DataFingerprint дешевый отпечаток таблицы: форма и последняя строка.
// Изменение внутренних строк без изменения формы и хвоста отпечаток не меняет.
func DataFingerprint(t *models.Table) uint64 {
	d := xxhash.New()
	var buf [8]byte

	writeUint := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}

	n := t.Len()
	writeUint(uint64(n))
	_, _ = d.WriteString(strings.Join(t.Columns(), ","))
	if n == 0 {
		return d.Sum64()
	}

	writeUint(uint64(t.Timestamps[0].UnixNano()))
	last, _ := t.Last()
	writeUint(uint64(last.Timestamp.UnixNano()))
	for _, v := range []float64{last.Open, last.High, last.Low, last.Close, last.Volume} {
		writeUint(math.Float64bits(v))
	}
	return d.Sum64()
}

// ParamsFingerprint отпечаток канонических параметров
func ParamsFingerprint(p indicator.Params) uint64 {
	return xxhash.Sum64String(p.String())
}
