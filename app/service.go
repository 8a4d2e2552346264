// Package app wires the configuration into the profile pipeline and runs it.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gridsim/bevflow/app/plugins"
	"github.com/gridsim/bevflow/config"
	"github.com/gridsim/bevflow/core/availability"
	"github.com/gridsim/bevflow/core/charging"
	"github.com/gridsim/bevflow/core/consumption"
	"github.com/gridsim/bevflow/core/database"
	"github.com/gridsim/bevflow/core/energy"
	coremetrics "github.com/gridsim/bevflow/core/metrics"
	"github.com/gridsim/bevflow/core/mobility"
	"github.com/gridsim/bevflow/core/model"
	"github.com/gridsim/bevflow/core/rules"
	"github.com/gridsim/bevflow/core/scenario"
	"github.com/gridsim/bevflow/infra/export"
	"github.com/gridsim/bevflow/infra/logger"
	inframetrics "github.com/gridsim/bevflow/infra/metrics"
	"github.com/gridsim/bevflow/infra/mqtt"
	"github.com/gridsim/bevflow/internal/eventbus"
)

// Service orchestrates the profile pipeline: mobility sampling, consumption,
// charging, the household dispatch solve and result export.
type Service struct {
	cfg     *config.Config
	horizon model.Horizon
	seed    uint64

	DB   *database.DB
	Bus  *eventbus.TypedBus[coremetrics.StageEvent]
	log  logger.Logger
	sink coremetrics.Sink
	pub  mqtt.Publisher
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("pipeline")
	h, err := cfg.Horizon.Horizon()
	if err != nil {
		return nil, fmt.Errorf("horizon: %w", err)
	}
	seed := cfg.Horizon.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
		logg.Infof("no seed configured, using %d", seed)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open profile database: %w", err)
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := plugins.Sink("prometheus", cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink, err := plugins.Sink("influx", cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("influx sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = inframetrics.NewMultiSink(sinks...)
	}

	svc := &Service{
		cfg:     cfg,
		horizon: h,
		seed:    seed,
		DB:      db,
		Bus:     eventbus.NewTyped[coremetrics.StageEvent](),
		log:     logg,
		sink:    sink,
	}
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.pub = pub
	}
	return svc, nil
}

// Horizon returns the configured simulation window.
func (s *Service) Horizon() model.Horizon { return s.horizon }

func (s *Service) record(stage, group string, profiles int, start time.Time, err error) {
	ev := coremetrics.StageEvent{
		Stage:    stage,
		Group:    group,
		Profiles: profiles,
		Duration: time.Since(start),
		Err:      err,
	}
	if serr := s.sink.RecordStage(ev); serr != nil {
		s.log.Warnf("record stage %s: %v", stage, serr)
	}
	s.Bus.Publish(ev)
}

// RunMobility samples one driving profile per configured group slot and
// stores them.
func (s *Service) RunMobility(ctx context.Context) error {
	start := time.Now()
	stats, err := mobility.LoadStats(s.cfg.Mobility.StatsDir)
	if err != nil {
		s.record("mobility", "", 0, start, err)
		return fmt.Errorf("load mobility statistics: %w", err)
	}
	rulesFile := rules.File{}
	if s.cfg.Mobility.RulesPath != "" {
		rulesFile, err = rules.Load(s.cfg.Mobility.RulesPath)
		if err != nil {
			s.record("mobility", "", 0, start, err)
			return fmt.Errorf("load rules: %w", err)
		}
	}
	table := rules.Build(s.cfg.Mobility.Groups, rulesFile.Groups, rulesFile.Base)

	total := 0
	for gi, group := range s.cfg.Mobility.Groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		rule, err := rules.Get(table, group)
		if err != nil {
			s.record("mobility", group, total, start, err)
			return err
		}
		gen, err := mobility.NewGenerator(stats, rule, s.horizon, s.seed+uint64(gi))
		if err != nil {
			s.record("mobility", group, total, start, err)
			return err
		}
		for i := 0; i < s.cfg.Mobility.ProfilesPerGroup; i++ {
			p, err := gen.Generate(group)
			if err != nil {
				s.record("mobility", group, total, start, err)
				return fmt.Errorf("generate mobility for %s: %w", group, err)
			}
			if err := s.DB.Put(p); err != nil {
				s.record("mobility", group, total, start, err)
				return err
			}
			s.log.Debugf("stored driving profile %s", p.Name)
			total++
		}
	}
	s.record("mobility", "", total, start, nil)
	return nil
}

// RunConsumption converts every stored driving profile into an energy demand
// profile using the configured vehicles in round-robin order.
func (s *Service) RunConsumption(ctx context.Context) error {
	start := time.Now()
	catalog := consumption.NewCatalog()
	if s.cfg.Consumption.CatalogPath != "" {
		var err error
		catalog, err = consumption.LoadCatalog(s.cfg.Consumption.CatalogPath)
		if err != nil {
			s.record("consumption", "", 0, start, err)
			return fmt.Errorf("load vehicle catalog: %w", err)
		}
	}
	ambient, err := s.ambient()
	if err != nil {
		s.record("consumption", "", 0, start, err)
		return err
	}
	settings := consumption.DefaultSettings()
	settings.CabinTempC = s.cfg.Consumption.CabinTempC
	settings.Passengers = s.cfg.Consumption.Passengers

	driving := s.DB.ByKind(model.KindDriving)
	if len(driving) == 0 {
		err := fmt.Errorf("no driving profiles in database")
		s.record("consumption", "", 0, start, err)
		return err
	}
	total := 0
	for i, d := range driving {
		if err := ctx.Err(); err != nil {
			return err
		}
		ref := s.cfg.Consumption.Vehicles[i%len(s.cfg.Consumption.Vehicles)]
		spec, err := catalog.Model(ref.Manufacturer, ref.Model, ref.Year)
		if err != nil {
			s.record("consumption", d.Group, total, start, err)
			return err
		}
		sim, err := consumption.NewSimulator(spec, ambient, settings)
		if err != nil {
			s.record("consumption", d.Group, total, start, err)
			return err
		}
		p, err := sim.Run(d)
		if err != nil {
			s.record("consumption", d.Group, total, start, err)
			return fmt.Errorf("consumption for %s: %w", d.Name, err)
		}
		if err := s.DB.Put(p); err != nil {
			s.record("consumption", d.Group, total, start, err)
			return err
		}
		s.log.Debugf("stored consumption profile %s (%s)", p.Name, spec.Key())
		total++
	}
	s.record("consumption", "", total, start, nil)
	return nil
}

func (s *Service) ambient() (*model.TimeSeries, error) {
	if s.cfg.Consumption.AmbientCSV != "" {
		ts, err := consumption.LoadAmbientCSV(s.cfg.Consumption.AmbientCSV, s.horizon)
		if err != nil {
			return nil, fmt.Errorf("ambient profile: %w", err)
		}
		return ts, nil
	}
	return consumption.SyntheticAmbient(s.horizon, s.cfg.Consumption.AmbientMeanC, s.cfg.Consumption.AmbientAmplitudeC), nil
}

// RunCharging derives charger availability for every consumption profile and
// simulates the configured charging strategy against it.
func (s *Service) RunCharging(ctx context.Context) error {
	start := time.Now()
	strategy, err := plugins.Strategy(s.cfg.Charging.Strategy, nil)
	if err != nil {
		s.record("charging", "", 0, start, err)
		return err
	}
	mapper := availability.NewMapper(s.cfg.Charging.Points, s.seed)

	consumptions := s.DB.ByKind(model.KindConsumption)
	if len(consumptions) == 0 {
		err := fmt.Errorf("no consumption profiles in database")
		s.record("charging", "", 0, start, err)
		return err
	}
	total := 0
	for _, c := range consumptions {
		if err := ctx.Err(); err != nil {
			return err
		}
		avail, err := mapper.Derive(c)
		if err != nil {
			s.record("charging", c.Group, total, start, err)
			return fmt.Errorf("availability for %s: %w", c.Name, err)
		}
		if err := s.DB.Put(avail); err != nil {
			s.record("charging", c.Group, total, start, err)
			return err
		}
		battery := charging.Battery{
			CapacityKWh:  metaFloat(c, "battery_kwh"),
			Soc:          s.cfg.Charging.InitialSoC,
			ChargeRateKW: metaFloat(c, "max_ac_charge_kw"),
		}
		p, err := charging.Apply(strategy, c, avail, battery)
		if err != nil {
			s.record("charging", c.Group, total, start, err)
			return fmt.Errorf("charging for %s: %w", c.Name, err)
		}
		if err := s.DB.Put(p); err != nil {
			s.record("charging", c.Group, total, start, err)
			return err
		}
		if unmet := p.Meta["unmet_kwh"]; unmet != "" {
			s.log.Warnf("battery of %s too small for its trips, %s kWh unmet", c.Name, unmet)
		}
		s.log.Debugf("stored charging profile %s", p.Name)
		total++
	}
	s.record("charging", "", total, start, nil)
	return nil
}

func metaFloat(p *model.Profile, key string) float64 {
	v, err := strconv.ParseFloat(p.Meta[key], 64)
	if err != nil {
		return 0
	}
	return v
}

// RunSolve builds and solves the household dispatch for every consumption
// profile, exports the results and publishes the wallbox setpoints.
func (s *Service) RunSolve(ctx context.Context) error {
	start := time.Now()
	consumptions := s.DB.ByKind(model.KindConsumption)
	if len(consumptions) == 0 {
		err := fmt.Errorf("no consumption profiles in database")
		s.record("solve", "", 0, start, err)
		return err
	}
	solved := 0
	for _, c := range consumptions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.solveOne(c); err != nil {
			s.record("solve", c.Group, solved, start, err)
			return err
		}
		solved++
	}
	s.record("solve", "", solved, start, nil)
	return nil
}

func (s *Service) solveOne(c *model.Profile) error {
	bev, err := scenario.FromProfile(c)
	if err != nil {
		return fmt.Errorf("scenario input from %s: %w", c.Name, err)
	}
	sys, err := scenario.Build(s.cfg.Scenario, s.horizon, bev)
	if err != nil {
		return fmt.Errorf("build scenario for %s: %w", c.Name, err)
	}

	name := s.cfg.Results.ScenarioName + "_" + c.Name
	solveStart := time.Now()
	res, err := sys.Solve()
	ev := coremetrics.SolveEvent{
		Scenario: name,
		Periods:  s.horizon.Periods,
		Feasible: err == nil,
		Duration: time.Since(solveStart),
		Time:     time.Now().UTC(),
	}
	if res != nil {
		ev.Objective = res.Objective
	}
	if serr := s.sink.RecordSolve(ev); serr != nil {
		s.log.Warnf("record solve: %v", serr)
	}
	if err != nil {
		return fmt.Errorf("solve %s: %w", name, err)
	}
	s.log.Infof("solved %s, objective %.2f", name, res.Objective)

	if err := s.exportResult(name, c, bev, res); err != nil {
		return err
	}
	s.recordFlows(name, res)
	return s.publishSetpoints(name, res)
}

func (s *Service) exportResult(name string, c *model.Profile, bev scenario.BEVInput, res *energy.Result) error {
	dir := s.cfg.Results.Dir
	path, err := export.ExportResult(dir, name, res)
	if err != nil {
		return err
	}
	s.log.Infof("wrote result %s", path)

	pv, load, err := scenario.InputSeries(s.cfg.Scenario, s.horizon)
	if err != nil {
		return fmt.Errorf("resolve scenario inputs: %w", err)
	}

	inPath := filepath.Join(dir, name+"_input.csv")
	f, err := os.Create(inPath)
	if err != nil {
		return err
	}
	defer f.Close()
	in := export.ScenarioInput{
		AtHome:         bev.AtHome,
		PVKW:           pv,
		LoadKW:         load,
		ConsumptionKWh: bev.ConsumptionKWh,
		ChargingKW:     s.chargingSeries(c.Name),
	}
	if err := export.WriteScenarioInput(f, in); err != nil {
		return fmt.Errorf("write scenario input: %w", err)
	}
	return nil
}

// chargingSeries looks up the strategy profile derived from the given
// consumption profile. It is nil when the charging stage did not run.
func (s *Service) chargingSeries(source string) *model.TimeSeries {
	for _, p := range s.DB.ByKind(model.KindCharging) {
		if p.Source != source {
			continue
		}
		if ts, err := p.Get(model.SeriesChargingKW); err == nil {
			return ts
		}
	}
	return nil
}

func (s *Service) recordFlows(name string, res *energy.Result) {
	wallbox, ok := res.Flows[scenario.LabelWallbox]
	if !ok {
		return
	}
	points := make([]coremetrics.ResultPoint, 0, wallbox.Len())
	for i, v := range wallbox.Values {
		points = append(points, coremetrics.ResultPoint{
			Scenario:  name,
			Component: scenario.LabelWallbox,
			PowerKW:   v,
			Time:      wallbox.TimeAt(i),
		})
	}
	if err := s.sink.RecordResultPoints(points); err != nil {
		s.log.Warnf("record result points: %v", err)
	}
}

func (s *Service) publishSetpoints(name string, res *energy.Result) error {
	if s.pub == nil {
		return nil
	}
	published := 0
	for _, component := range []string{scenario.LabelWallbox, scenario.LabelGrid} {
		flow, ok := res.Flows[component]
		if !ok {
			continue
		}
		for i, v := range flow.Values {
			sp := mqtt.Setpoint{
				Scenario:  name,
				Component: component,
				Time:      flow.TimeAt(i),
				PowerKW:   v,
			}
			if err := s.pub.Publish(sp); err != nil {
				return fmt.Errorf("publish setpoint: %w", err)
			}
			published++
		}
	}
	s.log.Infof("published %d setpoints for %s", published, name)
	return nil
}

// ExportProfiles writes every stored profile as a CSV table.
func (s *Service) ExportProfiles(kind model.ProfileKind) error {
	profiles := s.DB.ByKind(kind)
	if kind == "" {
		profiles = nil
		for _, name := range s.DB.Names() {
			p, err := s.DB.Get(name)
			if err != nil {
				return err
			}
			profiles = append(profiles, p)
		}
	}
	for _, p := range profiles {
		path, err := export.ExportProfile(s.cfg.Results.Dir, p)
		if err != nil {
			return err
		}
		s.log.Infof("wrote profile %s", path)
	}
	return nil
}

// Run executes the full pipeline. Stage events are logged from the bus while
// the stages run.
func (s *Service) Run(ctx context.Context) error {
	sub := s.Bus.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range sub {
			if ev.Err != nil {
				s.log.Errorf("stage %s failed after %s: %v", ev.Stage, ev.Duration, ev.Err)
				continue
			}
			s.log.Infof("stage %s done, %d profiles in %s", ev.Stage, ev.Profiles, ev.Duration)
		}
	}()
	defer func() {
		s.Bus.Unsubscribe(sub)
		<-done
	}()

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := inframetrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	for _, stage := range []func(context.Context) error{
		s.RunMobility,
		s.RunConsumption,
		s.RunCharging,
		s.RunSolve,
	} {
		if err := stage(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the publisher and the event bus.
func (s *Service) Close() error {
	s.Bus.Close()
	if s.pub != nil {
		return s.pub.Close()
	}
	return nil
}
