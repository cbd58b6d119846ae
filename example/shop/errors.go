package shop

import "errors"

var ErrRedisRequired = errors.New("shop: session driver redis needs redis.url")
