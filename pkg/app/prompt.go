package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidChoice 输入了菜单以外的选项
var ErrInvalidChoice = errors.New("无效选择")

// Mode 运行模式
type Mode int

const (
	ModeOnce    Mode = 1 // 单次检测
	ModeMonitor Mode = 2 // 持续监控
)

// Choice 交互式选择结果
type Choice struct {
	Mode     Mode
	Interval time.Duration
}

// Prompt 打印菜单并读取运行模式
//
// 持续监控时继续询问检测间隔，输入为空或不是正整数时使用 defaultInterval。
func Prompt(in io.Reader, out io.Writer, defaultInterval time.Duration) (Choice, error) {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "币安趋势反转检测系统")
	fmt.Fprintln(out, "=====================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "选择运行模式:")
	fmt.Fprintln(out, "1. 单次检测")
	fmt.Fprintln(out, "2. 持续监控")
	fmt.Fprint(out, "请输入选择 (1/2): ")

	line, err := readLine(reader)
	if err != nil {
		return Choice{}, err
	}

	switch line {
	case "1":
		return Choice{Mode: ModeOnce}, nil
	case "2":
		fmt.Fprintf(out, "输入检测间隔(秒，默认%d): ", int(defaultInterval.Seconds()))
		line, err := readLine(reader)
		if err != nil {
			return Choice{}, err
		}
		return Choice{Mode: ModeMonitor, Interval: parseInterval(line, defaultInterval)}, nil
	default:
		fmt.Fprintln(out, ErrInvalidChoice.Error())
		return Choice{}, ErrInvalidChoice
	}
}

// readLine 读取一行，EOF 前的最后一行也返回
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("读取输入失败: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func parseInterval(s string, def time.Duration) time.Duration {
	for _, r := range s {
		if r < '0' || r > '9' {
			return def
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
