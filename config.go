package main

import (
	"atlaspacker/rectpack"
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Options 是一次运行的全部配置，可以来自 TOML 文件和命令行
type Options struct {
	UnpackPath        string  `toml:"unpack"`        // 解包元数据路径
	Manifest          string  `toml:"manifest"`      // 多边形清单
	OutputDir         string  `toml:"output"`        // 输出目录
	PageWidth         int     `toml:"width"`         // 页面宽度
	PageHeight        int     `toml:"height"`        // 页面高度
	Padding           int     `toml:"padding"`       // 纹理间距
	Buffer            int     `toml:"buffer"`        // 裁切时保留的边缘像素
	Downsample        float64 `toml:"downsample"`    // 默认缩放系数
	Strategy          string  `toml:"strategy"`      // 放置算法
	Order             string  `toml:"order"`         // 放置顺序
	ImageCacheEntries int     `toml:"image_cache"`   // 解码图片缓存数量
	ExportWorkers     int     `toml:"workers"`       // 并行导出页面数
	UnusedPixels      bool    `toml:"unused_pixels"` // 输出未使用像素统计
	SaveConfig        string  `toml:"-"`             // 把合并后的配置写到该路径
}

func defaultOptions() Options {
	return Options{
		OutputDir:         "output",
		PageWidth:         rectpack.DefaultPageSize,
		PageHeight:        rectpack.DefaultPageSize,
		Downsample:        1,
		Strategy:          rectpack.Guillotine.String(),
		Order:             "input",
		ImageCacheEntries: 32,
	}
}

// parseOptions 读取命令行参数；指定 -config 时先加载文件，
// 命令行中显式给出的参数覆盖文件中的值
func parseOptions(fs *flag.FlagSet, args []string) (Options, error) {
	cli := defaultOptions()
	configPath := fs.String("config", "", "TOML 配置文件")
	fs.StringVar(&cli.UnpackPath, "unpack", cli.UnpackPath, "解包: atlases.json 路径")
	fs.StringVar(&cli.Manifest, "manifest", cli.Manifest, "多边形清单 (JSON)")
	fs.StringVar(&cli.OutputDir, "output", cli.OutputDir, "输出目录")
	fs.IntVar(&cli.PageWidth, "width", cli.PageWidth, "页面宽度 (向上取整到2的幂)")
	fs.IntVar(&cli.PageHeight, "height", cli.PageHeight, "页面高度 (向上取整到2的幂)")
	fs.IntVar(&cli.Padding, "padding", cli.Padding, "纹理间距")
	fs.IntVar(&cli.Buffer, "buffer", cli.Buffer, "裁切时保留的边缘像素")
	fs.Float64Var(&cli.Downsample, "downsample", cli.Downsample, "默认缩放系数 (0, 1]")
	fs.StringVar(&cli.Strategy, "strategy", cli.Strategy, "放置算法 (guillotine, tree)")
	fs.StringVar(&cli.Order, "order", cli.Order, "放置顺序 (input, natural, area, perimeter, diff, maxside)")
	fs.IntVar(&cli.ImageCacheEntries, "image-cache", cli.ImageCacheEntries, "解码图片缓存数量")
	fs.IntVar(&cli.ExportWorkers, "workers", cli.ExportWorkers, "并行导出页面数 (0 表示 CPU 核心数)")
	fs.BoolVar(&cli.UnusedPixels, "unused", cli.UnusedPixels, "输出每页未使用像素统计")
	fs.StringVar(&cli.SaveConfig, "save-config", "", "把最终配置写成 TOML 文件")
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	if *configPath == "" {
		return cli, nil
	}

	options, err := readConfig(*configPath)
	if err != nil {
		return Options{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "unpack":
			options.UnpackPath = cli.UnpackPath
		case "manifest":
			options.Manifest = cli.Manifest
		case "output":
			options.OutputDir = cli.OutputDir
		case "width":
			options.PageWidth = cli.PageWidth
		case "height":
			options.PageHeight = cli.PageHeight
		case "padding":
			options.Padding = cli.Padding
		case "buffer":
			options.Buffer = cli.Buffer
		case "downsample":
			options.Downsample = cli.Downsample
		case "strategy":
			options.Strategy = cli.Strategy
		case "order":
			options.Order = cli.Order
		case "image-cache":
			options.ImageCacheEntries = cli.ImageCacheEntries
		case "workers":
			options.ExportWorkers = cli.ExportWorkers
		case "unused":
			options.UnusedPixels = cli.UnusedPixels
		case "save-config":
			options.SaveConfig = cli.SaveConfig
		}
	})
	return options, nil
}

// readConfig 从 TOML 文件读取配置，未出现的键保持默认值
func readConfig(path string) (Options, error) {
	options := defaultOptions()
	meta, err := toml.DecodeFile(path, &options)
	if err != nil {
		return Options{}, errors.Wrapf(err, "read config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		fmt.Fprintf(os.Stderr, "警告: 配置文件 %s 中有未知的键 %v\n", path, undecoded)
	}
	return options, nil
}

// writeConfig 把配置写成 TOML，便于生成配置模板
func writeConfig(path string, options Options) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create config %s", path)
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(options)
}
