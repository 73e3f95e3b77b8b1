package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ ActivitySink    = NopActivitySink{}
	_ ActivitySink    = (*MemoryActivityLog)(nil)
	_ ActivityReader  = (*MemoryActivityLog)(nil)
	_ ColorNormalizer = ARGBColorNormalizer{}
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ RawConfigLoader = StaticConfigLoader{}
	_ OptionsResolver = GoOptionsResolver{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
