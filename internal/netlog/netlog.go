// Package netlog provides the structured logger shared by every NetRush
// component. It pairs banner/section console flourishes for operator
// startup output with go.uber.org/zap for every leveled call, so protocol
// events carry structured fields (client id, snapshot id, seq num)
// instead of interpolated strings.
package netlog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var base *zap.Logger

func init() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.TimeKey = "t"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Base config is static and known-valid; surfacing a panic here
		// would only happen on an sdk regression, which callers cannot
		// recover from meaningfully at init time.
		panic(err)
	}
	base = l
}

// Logger is a named component logger carrying structured fields.
type Logger struct {
	z *zap.Logger
}

// Named returns a component-scoped logger, e.g. netlog.Named("server").
func Named(component string) *Logger {
	return &Logger{z: base.Named(component)}
}

func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...zap.Field) { l.z.Fatal(msg, fields...) }

// Sync flushes any buffered log entries; call before process exit.
func (l *Logger) Sync() error { return l.z.Sync() }

// Banner prints the application banner for operator-facing startup
// output.
func Banner(title, version string) {
	const art = `
 _   _      _   ____            _
| \ | | ___| |_|  _ \ _   _ ___| |__
|  \| |/ _ \ __| |_) | | | / __| '_ \
| |\  |  __/ |_|  _ <| |_| \__ \ | | |
|_| \_|\___|\__|_| \_\\__,_|___/_| |_|
`
	fmt.Println(art)
	fmt.Printf("  %s — version %s\n\n", title, version)
}

// Section prints a section header for operator-facing console output.
func Section(title string) {
	fmt.Printf("\n== %s ==\n\n", title)
}
