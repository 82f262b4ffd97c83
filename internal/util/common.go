package util

import "github.com/sirupsen/logrus"

func ContinueOrFatal(err error) {
	if err != nil {
		logrus.WithError(err).Fatal("unable to continue")
	}
}

func WarnOnError(err error, message string) {
	if err != nil {
		logrus.WithError(err).Warn(message)
	}
}
