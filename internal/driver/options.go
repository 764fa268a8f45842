package driver

import (
	"math"
	"runtime"

	"spring/internal/diag"
	"spring/internal/lang"
	"spring/internal/parser"
	"spring/internal/tokencache"
)

// Options настраивает пакетную обработку файлов.
type Options struct {
	Languages *lang.Registry
	// Jobs ограничивает число параллельно обрабатываемых файлов; 0 - GOMAXPROCS.
	Jobs int
	// MaxDiagnostics на файл; 0 - без лимита.
	MaxDiagnostics int
	// Parser передаётся каждому файлу; Reporter подменяется на bag файла.
	Parser parser.Options
	// Cache необязателен.
	Cache *tokencache.Cache
	// Timings добавляет в bag каждого файла диагностику с таймингами фаз.
	Timings bool
}

func (o Options) normalized() Options {
	if o.Languages == nil {
		o.Languages = lang.Default()
	}
	if o.Jobs <= 0 {
		o.Jobs = runtime.GOMAXPROCS(0)
	}
	return o
}

func (o Options) newBag() *diag.Bag {
	if o.MaxDiagnostics <= 0 {
		return diag.NewBag(math.MaxUint16)
	}
	return diag.NewBag(o.MaxDiagnostics)
}
