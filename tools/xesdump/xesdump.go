/*
XES dumping utility, it can be used to dump, convert and forward XES event logs

Copyright (C) 2017  RawSec SARL (0xrawsec)

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/pprof"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/0xrawsec/golang-utils/args"
	"github.com/0xrawsec/golang-utils/datastructs"
	"github.com/0xrawsec/golang-utils/log"
	"github.com/0xrawsec/golang-xes/output"
	"github.com/0xrawsec/golang-xes/xes"
	"github.com/fxamacker/cbor/v2"
)

const (
	// ExitSuccess RC
	ExitSuccess = 0
	// ExitFail RC
	ExitFail  = 1
	Version   = "Xesdump 1.0"
	Copyright = "Xesdump Copyright (C) 2017 RawSec SARL (@0xrawsec)"
	License   = `License GPLv3: This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain
conditions;`

	formatJSON = "json"
	formatCBOR = "cbor"
)

var (
	debug       bool
	version     bool
	timestamp   bool
	statflag    bool
	stampflag   bool
	exclude     string
	excludeSet  = newExcludeSet()
	jobs        int
	format      = formatJSON
	outFile     string
	configFile  string
	outCfg      output.Config
	start, stop args.DateVar
	defaultTime = time.Time{}

	activityPath  = xes.Path("/event/concept:name")
	timestampPath = xes.Path("/event/time:timestamp")
)

//////////////////////////// stat structure ////////////////////////////////////

type logStat struct {
	File       string
	Index      int
	Traces     int
	EventCount uint
	Counts     map[string]uint
}

type stats struct {
	sync.RWMutex
	Logs []*logStat
}

// stats contstructor
func newStats() stats {
	return stats{Logs: make([]*logStat, 0)}
}

// update stats with the records of a log
func (s *stats) update(file string, index int, l *xes.Log, records []*xes.Record) {
	ls := &logStat{
		File:   file,
		Index:  index,
		Traces: len(l.Traces),
		Counts: make(map[string]uint),
	}
	for _, r := range records {
		if excluded(r) {
			continue
		}
		ls.EventCount++
		if a, err := r.GetString(activityPath); err == nil {
			ls.Counts[a]++
		}
	}
	s.Lock()
	s.Logs = append(s.Logs, ls)
	s.Unlock()
}

// prints in CSV format
func (s *stats) print(w io.Writer) {
	s.RLock()
	defer s.RUnlock()
	fmt.Fprintf(w, "File,Log,Traces,Events,Activity,Count\n")
	for _, ls := range s.Logs {
		activities := make([]string, 0, len(ls.Counts))
		for a := range ls.Counts {
			activities = append(activities, a)
		}
		sort.Strings(activities)
		if len(activities) == 0 {
			fmt.Fprintf(w, "%s,%d,%d,%d,,0\n", ls.File, ls.Index, ls.Traces, ls.EventCount)
		}
		for _, a := range activities {
			fmt.Fprintf(w, "%s,%d,%d,%d,%q,%d\n", ls.File, ls.Index, ls.Traces, ls.EventCount, a, ls.Counts[a])
		}
	}
}

////////////////////////////////// Filtering ///////////////////////////////////

func newExcludeSet() *datastructs.SyncedSet {
	s := datastructs.NewSyncedSet()
	return &s
}

// setExcluded fills the set of excluded activities from a comma separated
// list
func setExcluded(list string) {
	for _, a := range strings.Split(list, ",") {
		if a = strings.TrimSpace(a); a != "" {
			excludeSet.Add(a)
		}
	}
}

// excluded returns true if the activity of the record is excluded
func excluded(r *xes.Record) bool {
	a, err := r.GetString(activityPath)
	return err == nil && excludeSet.Contains(a)
}

// recordTime parses the time:timestamp attribute of the event
func recordTime(r *xes.Record) (time.Time, error) {
	s, err := r.GetString(timestampPath)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}

// inWindow returns true if the record has to be printed according to the
// start and stop dates. Records without a valid timestamp are dropped only
// when a window is set.
func inWindow(r *xes.Record, start, stop time.Time) bool {
	if start == defaultTime && stop == defaultTime {
		return true
	}
	t, err := recordTime(r)
	if err != nil {
		return false
	}
	if start != defaultTime && t.Before(start) {
		return false
	}
	if stop != defaultTime && t.After(stop) {
		return false
	}
	return true
}

// small routine that prints the XES record
func printRecord(w io.Writer, r *xes.Record) error {
	switch format {
	case formatCBOR:
		return cbor.NewEncoder(w).Encode(r.Map())
	default:
		if timestamp {
			t, err := recordTime(r)
			if err != nil {
				log.Errorf("Event time not found: %s", string(r.ToJSON()))
				return nil
			}
			_, err = fmt.Fprintf(w, "%d: %s\n", t.UnixNano(), string(r.ToJSON()))
			return err
		}
		_, err := fmt.Fprintf(w, "%s\n", string(r.ToJSON()))
		return err
	}
}

///////////////////////////////// Main /////////////////////////////////////////

// mergeFlags overrides the output configuration with the flags explicitly set
func mergeFlags(cfg *output.Config, flagCfg output.Config, set map[string]bool) {
	if set["type"] {
		cfg.Type = flagCfg.Type
	}
	if set["tag"] {
		cfg.Tag = flagCfg.Tag
	}
	if set["http"] {
		cfg.HTTP = flagCfg.HTTP
	}
	if set["tcp"] {
		cfg.TCP = flagCfg.TCP
	}
	if set["brURL"] {
		cfg.Kafka.Brokers = flagCfg.Kafka.Brokers
	}
	if set["topic"] {
		cfg.Kafka.Topic = flagCfg.Kafka.Topic
	}
	if set["cID"] {
		cfg.Kafka.ClientID = flagCfg.Kafka.ClientID
	}
	if set["es"] {
		cfg.Elastic.URL = flagCfg.Elastic.URL
	}
	if set["index"] {
		cfg.Elastic.Index = flagCfg.Elastic.Index
	}
	if set["pg"] {
		cfg.Postgres.DSN = flagCfg.Postgres.DSN
	}
	if set["table"] {
		cfg.Postgres.Table = flagCfg.Postgres.Table
	}
}

func main() {
	var memprofile, cpuprofile string
	flag.BoolVar(&debug, "d", debug, "Enable debug mode")
	flag.BoolVar(&version, "V", version, "Show version and exit")
	flag.BoolVar(&timestamp, "t", timestamp, "Prints event timestamp (as int) at the beginning of line to make sorting easier")
	flag.BoolVar(&statflag, "s", statflag, "Prints stats about events in files")
	flag.BoolVar(&stampflag, "stamp", stampflag, "Add an identity:id to traces and events not having one")
	flag.StringVar(&exclude, "x", exclude, "Comma separated list of activities (concept:name) to leave out")
	flag.IntVar(&jobs, "j", xes.MaxJobs, "Number of goroutines used to parse traces")
	flag.StringVar(&format, "format", format, "Output format of the records: json or cbor")
	flag.StringVar(&outFile, "o", outFile, "Write the log back to this file (gzip compressed if it ends with .gz)")
	flag.Var(&start, "start", "Print events starting from start")
	flag.Var(&stop, "stop", "Print events before stop")

	flag.StringVar(&memprofile, "memprofile", "", "write memory profile to this file")
	flag.StringVar(&cpuprofile, "cpuprofile", "", "write cpu profile to this file")

	flag.StringVar(&configFile, "config", "", "YAML file configuring the remote log collector")
	flag.StringVar(&outCfg.Type, "type", "", "Type of remote log collector: http, tcp, kafka, elastic, postgres")
	flag.StringVar(&outCfg.HTTP, "http", "", "url for sending output to remote site over HTTP")
	flag.StringVar(&outCfg.TCP, "tcp", "", "tcp socket address for sending output to remote site over TCP")
	flag.StringVar(&outCfg.Kafka.Brokers, "brURL", "", "Kafka Broker URL")
	flag.StringVar(&outCfg.Kafka.Topic, "topic", "", "Kafka topic")
	flag.StringVar(&outCfg.Kafka.ClientID, "cID", "", "Kafka client ID")
	flag.StringVar(&outCfg.Elastic.URL, "es", "", "Elasticsearch URL")
	flag.StringVar(&outCfg.Elastic.Index, "index", "", "Elasticsearch index")
	flag.StringVar(&outCfg.Postgres.DSN, "pg", "", "PostgreSQL DSN")
	flag.StringVar(&outCfg.Postgres.Table, "table", output.DefaultTable, "PostgreSQL table")
	flag.StringVar(&outCfg.Tag, "tag", "", "special tag for matching purpose on remote collector")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s: %[1]s [OPTIONS] FILES...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	flag.Parse()

	// Debug mode
	if debug {
		log.InitLogger(log.LDebug)
	}

	// version
	if version {
		fmt.Fprintf(os.Stderr, "%s\n%s\n%s\n", Version, Copyright, License)
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(ExitFail)
	}

	if format != formatJSON && format != formatCBOR {
		log.LogErrorAndExit(fmt.Errorf("Unknown format %q", format))
	}

	if outFile != "" && flag.NArg() != 1 {
		log.LogErrorAndExit(fmt.Errorf("-o expects a single input file"))
	}

	xes.SetMaxJobs(jobs)
	setExcluded(exclude)

	// Handle profiling functions
	if memprofile != "" {
		defer func() {
			f, err := os.Create(memprofile)
			if err != nil {
				log.LogErrorAndExit(err)
			}
			pprof.WriteHeapProfile(f)
			f.Close()
		}()
	}

	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			log.LogErrorAndExit(err)
		}
		err = pprof.StartCPUProfile(f)
		if err != nil {
			log.LogErrorAndExit(err)
		}
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
		}()
	}

	// init stats in case needed
	s := newStats()

	// init remote output if any
	var out output.Output
	cfg := &outCfg
	if configFile != "" {
		var err error
		if cfg, err = output.LoadConfig(configFile); err != nil {
			log.LogErrorAndExit(err)
		}
		set := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		mergeFlags(cfg, outCfg, set)
	}
	if cfg.Type != "" {
		var err error
		if out, err = output.New(cfg); err != nil {
			log.LogErrorAndExit(err)
		}
		if c, ok := out.(io.Closer); ok {
			defer c.Close()
		}
		log.Infof("Forwarding records to %s output", cfg.Type)
	}

	for _, xesFile := range flag.Args() {
		logs, err := xes.Read(xesFile)
		if err != nil {
			log.Error(err)
			continue
		}

		for i, l := range logs {
			if stampflag {
				n := l.Stamp()
				log.Debugf("Stamped %d element(s) in log #%d of %s", n, i, xesFile)
			}

			records := l.Records()
			if statflag {
				// We update the stats
				s.update(xesFile, i, l, records)
				continue
			}

			for _, r := range records {
				if excluded(r) || !inWindow(r, time.Time(start), time.Time(stop)) {
					continue
				}
				// We print records
				if out != nil {
					out.Request(r)
				} else if err := printRecord(os.Stdout, r); err != nil {
					log.LogErrorAndExit(err)
				}
			}
		}

		if outFile != "" {
			if len(logs) == 0 {
				log.LogErrorAndExit(fmt.Errorf("%s: no log to write", xesFile))
			}
			if len(logs) > 1 {
				log.Infof("%s contains %d logs, only the first one is written", xesFile, len(logs))
			}
			if err := xes.Write(logs[0], outFile); err != nil {
				log.LogErrorAndExit(err)
			}
		}
	}

	// We print the stats if needed
	if statflag {
		s.print(os.Stdout)
	}
}
