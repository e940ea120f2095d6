package fakes

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate -o ./fake_ratelimiter.go ../ratelimiter Limiter
//counterfeiter:generate -o ./fake_httpstatus_collector.go ../healthendpoint HTTPStatusCollector
//counterfeiter:generate -o ./fake_pinger.go ../healthendpoint Pinger
