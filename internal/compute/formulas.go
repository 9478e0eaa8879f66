package compute

import "github.com/sells-group/metal-lca/internal/model"

// Emission factor names referenced by the formulas.
const (
	DieselCO2          = "DieselCO2KgPerLitre"
	DieselEnergy       = "DieselEnergyMJPerLitre"
	DieselPM           = "DieselPMKgPerLitre"
	NaturalGasCO2      = "NaturalGasCO2KgPerCubicMeter"
	NaturalGasEnergy   = "NaturalGasEnergyMJPerCubicMeter"
	NaturalGasNOx      = "NaturalGasNOxKgPerCubicMeter"
	CokeCO2            = "CokeCO2KgPerKg"
	CokeEnergy         = "CokeEnergyMJPerKg"
	CokeSOx            = "CokeSOxKgPerKg"
	CokePM             = "CokePMKgPerKg"
	ElectricityCO2     = "ElectricityCO2KgPerKWh"
	ElectricityEnergy  = "ElectricityEnergyMJPerKWh"
	ExplosivesCO2      = "ExplosivesCO2KgPerKg"
	ExplosivesPM       = "ExplosivesPMKgPerKg"
	ReagentCO2         = "FlotationReagentCO2KgPerKg"
	ReagentEnergy      = "FlotationReagentEnergyMJPerKg"
	FluxCO2            = "FluxCO2KgPerKg"
	MaintenanceCO2     = "MaintenanceMaterialCO2KgPerKg"
	MaintenanceEnergy  = "MaintenanceMaterialEnergyMJPerKg"
	TransportCO2       = "TransportCO2KgPerTonneKm"
	TransportEnergy    = "TransportEnergyMJPerTonneKm"
	TransportNOx       = "TransportNOxKgPerTonneKm"
	LandfillCO2        = "LandfillCO2KgPerTonne"
	RecyclingCreditCO2 = "RecyclingCreditCO2KgPerTonneMetal"
)

type formula struct {
	factors []string
	fn      func(in *inputReader, f *factorReader, fu float64) map[string]float64
}

func formulas() map[model.StageName]formula {
	return map[model.StageName]formula{
		model.StageMining: {
			factors: []string{DieselCO2, DieselEnergy, DieselPM, ElectricityCO2, ElectricityEnergy, ExplosivesCO2, ExplosivesPM, TransportCO2, TransportEnergy},
			fn:      mining,
		},
		model.StageConcentration: {
			factors: []string{ElectricityCO2, ElectricityEnergy, ReagentCO2, ReagentEnergy},
			fn:      concentration,
		},
		model.StageSmelting: {
			factors: []string{ElectricityCO2, ElectricityEnergy, CokeCO2, CokeEnergy, CokeSOx, CokePM, NaturalGasCO2, NaturalGasEnergy, NaturalGasNOx, FluxCO2},
			fn:      smelting,
		},
		model.StageFabrication: {
			factors: []string{ElectricityCO2, ElectricityEnergy, NaturalGasCO2, NaturalGasEnergy, NaturalGasNOx, TransportCO2, TransportEnergy, TransportNOx},
			fn:      fabrication,
		},
		model.StageUsePhase: {
			factors: []string{ElectricityCO2, ElectricityEnergy, MaintenanceCO2, MaintenanceEnergy, TransportCO2, TransportEnergy},
			fn:      usePhase,
		},
		model.StageEndOfLife: {
			factors: []string{ElectricityCO2, ElectricityEnergy, TransportCO2, TransportEnergy, LandfillCO2, RecyclingCreditCO2},
			fn:      endOfLife,
		},
	}
}

// mining scales per-tonne-ore inputs by the ore mass needed for the
// functional unit at the given grade.
func mining(in *inputReader, f *factorReader, fu float64) map[string]float64 {
	ore := fu / in.fraction("OreGradePercent")

	diesel := in.get("DieselUseLitresPerTonneOre") * ore
	kwh := in.get("ElectricityUseKilowattHoursPerTonneOre") * ore
	explosives := in.get("ExplosivesUseKilogramsPerTonneOre") * ore
	water := in.get("WaterUseCubicMetersPerTonneOre") * ore
	tkm := in.get("TransportDistanceKilometersMining") * ore

	return map[string]float64{
		"CarbonFootprintMiningKgCO2e": diesel*f.get(DieselCO2) + kwh*f.get(ElectricityCO2) +
			explosives*f.get(ExplosivesCO2) + tkm*f.get(TransportCO2),
		"EnergyFootprintMiningMegajoules": diesel*f.get(DieselEnergy) + kwh*f.get(ElectricityEnergy) +
			tkm*f.get(TransportEnergy),
		"WaterFootprintMiningCubicMeters": water,
		"ParticulateMatterMiningKg":       diesel*f.get(DieselPM) + explosives*f.get(ExplosivesPM),
	}
}

// concentration scales per-tonne-concentrate inputs by the concentrate mass
// needed at the given recovery.
func concentration(in *inputReader, f *factorReader, fu float64) map[string]float64 {
	conc := fu / in.fraction("ConcentrateRecoveryPercent")

	kwh := in.get("GrindingEnergyKilowattHoursPerTonneConcentrate") * conc
	reagent := in.get("FlotationReagentKilogramsPerTonneConcentrate") * conc

	return map[string]float64{
		"CarbonFootprintConcentrationKgCO2e":     kwh*f.get(ElectricityCO2) + reagent*f.get(ReagentCO2),
		"EnergyFootprintConcentrationMegajoules": kwh*f.get(ElectricityEnergy) + reagent*f.get(ReagentEnergy),
		"WaterFootprintConcentrationCubicMeters": in.get("ProcessWaterCubicMetersPerTonneConcentrate") * conc,
		"TailingsGeneratedTonnes":                in.get("TailingsTonnesPerTonneConcentrate") * conc,
	}
}

// smelting scales per-tonne-metal inputs by the metal mass fed at the given
// yield. Captured sulfur is removed from the SOx output.
func smelting(in *inputReader, f *factorReader, fu float64) map[string]float64 {
	metal := fu / in.fraction("SmelterMetalYieldPercent")

	kwh := in.get("SmeltEnergyKilowattHoursPerTonneMetal") * metal
	coke := in.get("ReductantCokeKilogramsPerTonneMetal") * metal
	gas := in.get("NaturalGasCubicMetersPerTonneMetal") * metal
	flux := in.get("FluxUseKilogramsPerTonneMetal") * metal
	escaped := 1 - in.fraction("SulfurCaptureEfficiencyPercent")

	return map[string]float64{
		"CarbonFootprintSmeltingKgCO2e": kwh*f.get(ElectricityCO2) + coke*f.get(CokeCO2) +
			gas*f.get(NaturalGasCO2) + flux*f.get(FluxCO2),
		"EnergyFootprintSmeltingMegajoules": kwh*f.get(ElectricityEnergy) + coke*f.get(CokeEnergy) +
			gas*f.get(NaturalGasEnergy),
		"SOxEmissionsSmeltingKg":      coke * f.get(CokeSOx) * escaped,
		"NOxEmissionsSmeltingKg":      gas * f.get(NaturalGasNOx),
		"ParticulateMatterSmeltingKg": coke * f.get(CokePM),
	}
}

// fabrication scales per-tonne-product inputs by the material processed at
// the given yield.
func fabrication(in *inputReader, f *factorReader, fu float64) map[string]float64 {
	product := fu / in.fraction("MaterialYieldPercent")

	kwh := in.get("FabricationEnergyKilowattHoursPerTonneProduct") * product
	gas := in.get("FabricationNaturalGasCubicMetersPerTonneProduct") * product
	tkm := in.get("TransportDistanceKilometersFabrication") * product

	return map[string]float64{
		"CarbonFootprintFabricationKgCO2e": kwh*f.get(ElectricityCO2) + gas*f.get(NaturalGasCO2) +
			tkm*f.get(TransportCO2),
		"EnergyFootprintFabricationMegajoules": kwh*f.get(ElectricityEnergy) + gas*f.get(NaturalGasEnergy) +
			tkm*f.get(TransportEnergy),
		"NOxEmissionsFabricationKg": gas*f.get(NaturalGasNOx) + tkm*f.get(TransportNOx),
		"ProcessScrapTonnes":        in.get("ScrapGeneratedKilogramsPerTonneProduct") * product / 1000,
	}
}

// usePhase accumulates annual consumption over the product lifetime.
func usePhase(in *inputReader, f *factorReader, fu float64) map[string]float64 {
	years := in.get("ProductLifetimeYears")

	kwh := in.get("AnnualEnergyUseKilowattHoursPerTonneProduct") * years * fu
	maintenance := in.get("MaintenanceMaterialKilogramsPerTonneProductYear") * years * fu
	tkm := in.get("TransportDistanceKilometersUsePhase") * fu

	return map[string]float64{
		"CarbonFootprintUsePhaseKgCO2e": kwh*f.get(ElectricityCO2) + maintenance*f.get(MaintenanceCO2) +
			tkm*f.get(TransportCO2),
		"EnergyFootprintUsePhaseMegajoules": kwh*f.get(ElectricityEnergy) + maintenance*f.get(MaintenanceEnergy) +
			tkm*f.get(TransportEnergy),
	}
}

// endOfLife splits the functional unit into collected, recycled and
// landfilled streams. The recycling credit is reported separately and is not
// netted against the carbon footprint.
func endOfLife(in *inputReader, f *factorReader, fu float64) map[string]float64 {
	collected := fu * in.fraction("CollectionRatePercent")
	recovered := collected * in.fraction("RecyclingRatePercent")
	landfilled := fu * in.fraction("LandfillFractionPercent")

	kwh := in.get("RecyclingEnergyKilowattHoursPerTonneMetal") * recovered
	tkm := in.get("TransportDistanceKilometersEndOfLife") * collected

	return map[string]float64{
		"CarbonFootprintEndOfLifeKgCO2e": kwh*f.get(ElectricityCO2) + tkm*f.get(TransportCO2) +
			landfilled*f.get(LandfillCO2),
		"EnergyFootprintEndOfLifeMegajoules": kwh*f.get(ElectricityEnergy) + tkm*f.get(TransportEnergy),
		"RecoveredMetalTonnes":               recovered,
		"LandfilledMaterialTonnes":           landfilled,
		"RecyclingCreditKgCO2e":              recovered * f.get(RecyclingCreditCO2),
	}
}
