package providers

import (
	"os"
	"path/filepath"
	"pinbot/internal/structures"

	"github.com/rs/zerolog"
)

type TypeEnum int

const (
	TypeApp TypeEnum = iota
	TypePoll
	TypeDownload
	TypeCli
	TypeGet
	TypePost
)

// Logger is the process-wide logging facade. Every component receives it via
// its constructor; the TypeEnum selects the log file the entry lands in.
type Logger interface {
	Debugf(t TypeEnum, format string, args ...interface{})
	Infof(t TypeEnum, format string, args ...interface{})
	Warnf(t TypeEnum, format string, args ...interface{})
	Errorf(t TypeEnum, format string, args ...interface{})
	Fatalf(t TypeEnum, format string, args ...interface{})
	Close()
}

var logFiles = map[TypeEnum]string{
	TypeApp:      "app.log",
	TypePoll:     "poll.log",
	TypeDownload: "download.log",
	TypeCli:      "cli.log",
	TypeGet:      "http.log",
	TypePost:     "http.log",
}

type LogProvider struct {
	loggers map[TypeEnum]zerolog.Logger
	files   map[string]*os.File
}

func NewLogProvider(conf *structures.Config) (Logger, error) {
	level, err := zerolog.ParseLevel(conf.Logger.Level)
	if err != nil {
		return nil, err
	}

	p := &LogProvider{
		loggers: make(map[TypeEnum]zerolog.Logger),
		files:   make(map[string]*os.File),
	}

	mode := os.FileMode(conf.Logger.Mode)
	for t, name := range logFiles {
		file, ok := p.files[name]
		if !ok {
			file, err = os.OpenFile(filepath.Join(conf.Logger.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, mode)
			if err != nil {
				p.Close()
				return nil, err
			}
			p.files[name] = file
		}

		var writer zerolog.LevelWriter = zerolog.MultiLevelWriter(file)
		if conf.Debug {
			writer = zerolog.MultiLevelWriter(file, zerolog.ConsoleWriter{Out: os.Stderr})
		}
		p.loggers[t] = zerolog.New(writer).Level(level).With().Timestamp().Logger()
	}

	return p, nil
}

func (p *LogProvider) Debugf(t TypeEnum, format string, args ...interface{}) {
	l := p.logger(t)
	l.Debug().Msgf(format, args...)
}

func (p *LogProvider) Infof(t TypeEnum, format string, args ...interface{}) {
	l := p.logger(t)
	l.Info().Msgf(format, args...)
}

func (p *LogProvider) Warnf(t TypeEnum, format string, args ...interface{}) {
	l := p.logger(t)
	l.Warn().Msgf(format, args...)
}

func (p *LogProvider) Errorf(t TypeEnum, format string, args ...interface{}) {
	l := p.logger(t)
	l.Error().Msgf(format, args...)
}

func (p *LogProvider) Fatalf(t TypeEnum, format string, args ...interface{}) {
	l := p.logger(t)
	l.Fatal().Msgf(format, args...)
}

func (p *LogProvider) Close() {
	for _, file := range p.files {
		_ = file.Sync()
		_ = file.Close()
	}
}

func (p *LogProvider) logger(t TypeEnum) zerolog.Logger {
	if l, ok := p.loggers[t]; ok {
		return l
	}
	return p.loggers[TypeApp]
}

func GetLogTypeByRequestType(method string) TypeEnum {
	if method == "POST" {
		return TypePost
	}
	return TypeGet
}
