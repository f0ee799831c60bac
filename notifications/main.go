// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package notifications sends run reports and warnings (e.g. detected
// bursty clients) to administrators, either via e-mail or via a Conomi
// monitoring instance.

package notifications

import (
	"errors"
	"fmt"
	goMail "net/mail"
	"strings"
	"time"

	"github.com/czcorpus/cnc-gokit/mail"
	"github.com/czcorpus/conomi/client"
	"github.com/rs/zerolog/log"
)

// Notifier is a general type representing a service for sending
// reports to administrators (run summaries, suspicious activity
// detected in a processed log).
type Notifier interface {
	SendNotification(subject string, metadata map[string]any, paragraphs ...string) error
}

// NewNotifier is a factory function for e-mail/Conomi notification.
// The two backends have different configurations, so the main config
// contains two sections - here represented by `conf` and `conf2`.
// Both are mutually exclusive and in case both are provided, the
// function returns an error. With neither configured, a null notifier
// just logging the would-be messages is returned.
//
// Missing e-mail sender is replaced by a default value.
func NewNotifier(
	conf *mail.NotificationConf,
	conf2 *client.ConomiClientConf,
	loc *time.Location,
) (Notifier, error) {
	if conf != nil && conf2 != nil {
		return nil, errors.New("either Conomi or e-mail notifier can be configured")
	}
	if conf2 != nil {
		cclient := client.NewConomiClient(*conf2)
		return &conomiNotifier{conf: conf2, client: cclient}, nil

	} else if conf != nil {
		if conf.Sender == "" {
			log.Warn().Msgf("e-mail sender not set - using default %s", defaultSender)
			conf.Sender = defaultSender
		}
		validated := append([]string{conf.Sender}, conf.Recipients...)
		for _, addr := range validated {
			if _, err := goMail.ParseAddress(addr); err != nil {
				return nil, fmt.Errorf("incorrect e-mail address %s: %s", addr, err)
			}
		}
		log.Info().Msgf(
			"creating e-mail sender with recipient(s) %s", strings.Join(conf.Recipients, ", "))
		return &defaultEmailNotifier{conf: conf, loc: loc}, nil
	}
	return &nullNotifier{}, nil
}
