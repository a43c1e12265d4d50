// Package commission 负责把合作方佣金描述转换为用户返利比例。
package commission

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	singleRatePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*%$`)
	rangeRatePattern  = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*%?\s*-\s*(\d+(?:\.\d+)?)\s*%$`)
)

// ParseAverage 解析佣金描述（"X%" 或 "X%-Y%"）并返回平均值
// 说明：合作方数据不可信，无法解析时返回 0，调用方应视为“无返利”而非错误。
func ParseAverage(descriptor string) decimal.Decimal {
	trimmed := strings.TrimSpace(descriptor)
	if trimmed == "" {
		return decimal.Zero
	}

	if match := singleRatePattern.FindStringSubmatch(trimmed); match != nil {
		value, err := decimal.NewFromString(match[1])
		if err != nil {
			return decimal.Zero
		}
		return value
	}

	if match := rangeRatePattern.FindStringSubmatch(trimmed); match != nil {
		low, err := decimal.NewFromString(match[1])
		if err != nil {
			return decimal.Zero
		}
		high, err := decimal.NewFromString(match[2])
		if err != nil {
			return decimal.Zero
		}
		return low.Add(high).Div(decimal.NewFromInt(2))
	}

	return decimal.Zero
}
