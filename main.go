package main

import (
	"encoding/base64"
	"flag"
	"net/http"
	"os"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/citygrid-lab/gridtraffic-sim/api"
	"github.com/citygrid-lab/gridtraffic-sim/task"
	"github.com/citygrid-lab/gridtraffic-sim/utils/config"
)

var (
	// 模拟任务名，主要用于日志标识
	job = flag.String("job", "job0", "the name of the whole simulation task")
	// 本程序监听的HTTP地址，设置为空则不启动对外服务
	listenAddr = flag.String("listen", "", "HTTP listening address (empty means no external API), e.g. :51102")
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "gridtraffic")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	var c config.Config
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Panic("config file or config data must be specified")
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		log.Panicf("config file load err: %v", err)
	}
	log.Infof("%+v", c)

	t := task.NewContext(*job, c)

	// HTTP协程，用于提供快照查询与障碍编辑服务
	if *listenAddr != "" {
		server := api.NewServer(t)
		go func() {
			log.Infof("listening on %s", *listenAddr)
			if err := http.ListenAndServe(*listenAddr, server.ServeMux()); err != nil {
				log.Panicf("failed to serve: %v", err)
			}
		}()
	}

	t.Run()
}
