package crossing

import "github.com/sirupsen/logrus"

// log 人行横道模块的日志记录器
var log = logrus.WithField("module", "crossing")
